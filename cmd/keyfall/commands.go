package main

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	openai "github.com/sashabaranov/go-openai"
	"github.com/spf13/cobra"

	"github.com/mversen/keyfall/audit"
	"github.com/mversen/keyfall/config"
	"github.com/mversen/keyfall/dispatch"
)

func newGenerateCommand(build func() (*app, error)) *cobra.Command {
	var (
		model      string
		maxTokens  int
		pinnedCred string
		rawOutput  bool
	)

	cmd := &cobra.Command{
		Use:   "generate [prompt...]",
		Short: "Send a generation request through the credential rotation",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := build()
			if err != nil {
				return err
			}
			defer a.recorder.Close()

			if model == "" {
				model = a.cfg.Defaults.Model
			}
			if maxTokens == 0 {
				maxTokens = a.cfg.Defaults.MaxTokens
			}

			payload := openai.ChatCompletionRequest{
				Model:     model,
				MaxTokens: maxTokens,
				Messages: []openai.ChatCompletionMessage{
					{Role: openai.ChatMessageRoleUser, Content: strings.Join(args, " ")},
				},
			}

			var opts []dispatch.CallOption
			if pinnedCred != "" {
				opts = append(opts, dispatch.WithCredential(pinnedCred))
			}

			ctx := cmd.Context()
			if a.cfg.RequestTimeoutSeconds > 0 {
				var cancel context.CancelFunc
				ctx, cancel = context.WithTimeout(ctx, time.Duration(a.cfg.RequestTimeoutSeconds)*time.Second)
				defer cancel()
			}

			endpoint := a.cfg.EndpointURL(config.ServiceGeneration, a.cfg.Endpoints.GeneratePath)
			result, err := a.dispatcher.Dispatch(ctx, endpoint, payload, "cli.generate", opts...)
			if err != nil {
				return err
			}

			a.logger.Printf("request succeeded with credential %s", result.Credential)

			if !rawOutput {
				var completion openai.ChatCompletionResponse
				if err := json.Unmarshal(result.Raw, &completion); err == nil && len(completion.Choices) > 0 {
					fmt.Println(completion.Choices[0].Message.Content)
					return nil
				}
			}
			fmt.Println(string(result.Raw))
			return nil
		},
	}

	cmd.Flags().StringVar(&model, "model", "", "Model to request (default from config)")
	cmd.Flags().IntVar(&maxTokens, "max-tokens", 0, "Token limit for the response (default from config)")
	cmd.Flags().StringVar(&pinnedCred, "credential", "", "Pin a single credential, disabling rotation")
	cmd.Flags().BoolVar(&rawOutput, "raw", false, "Print the raw JSON response")

	return cmd
}

func newCredentialsCommand(build func() (*app, error)) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "credentials",
		Short: "Inspect and refresh the session's credential list",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "Show the credentials the next dispatch would try",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := build()
			if err != nil {
				return err
			}
			defer a.recorder.Close()

			res := a.resolver.Resolve(cmd.Context(), "")
			if len(res.Credentials) == 0 {
				if res.RefreshErr != nil {
					return fmt.Errorf("no credentials available: %w", res.RefreshErr)
				}
				fmt.Println("No credentials available.")
				return nil
			}

			if res.Refreshed {
				fmt.Printf("Refreshed %d credentials from the lookup service.\n", len(res.Credentials))
			}
			for i, cred := range res.Credentials {
				fmt.Printf("%2d. %s (created %s)\n", i+1, cred, cred.CreatedAt)
			}
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "refresh",
		Short: "Fetch a fresh credential list and replace the cached one",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := build()
			if err != nil {
				return err
			}
			defer a.recorder.Close()

			creds, err := a.fetcher.FetchCredentials(cmd.Context())
			if err != nil {
				return fmt.Errorf("refresh failed: %w", err)
			}
			if len(creds) == 0 {
				fmt.Println("Lookup service returned no credentials.")
				return nil
			}
			if err := a.store.Put(cmd.Context(), creds); err != nil {
				return fmt.Errorf("failed to cache credentials: %w", err)
			}

			fmt.Printf("Cached %d credentials:\n", len(creds))
			for i, cred := range creds {
				fmt.Printf("%2d. %s (created %s)\n", i+1, cred, cred.CreatedAt)
			}
			return nil
		},
	})

	return cmd
}

func newAuditCommand(build func() (*app, error)) *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "audit",
		Short: "Show recent audit trail entries",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := build()
			if err != nil {
				return err
			}
			defer a.recorder.Close()

			sink, err := audit.NewSQLiteSink(a.cfg.Audit.Path)
			if err != nil {
				return fmt.Errorf("failed to open audit database: %w", err)
			}
			defer sink.Close()

			entries, err := sink.Recent(cmd.Context(), limit)
			if err != nil {
				return err
			}
			if len(entries) == 0 {
				fmt.Println("No audit entries recorded.")
				return nil
			}

			for _, entry := range entries {
				line := fmt.Sprintf("%s  [%s]  %s  %s",
					entry.Timestamp.Format("2006-01-02 15:04:05"), entry.Status, entry.Model, entry.Prompt)
				if entry.Error != "" {
					line += "  error: " + entry.Error
				}
				fmt.Println(line)
			}
			return nil
		},
	}

	cmd.Flags().IntVar(&limit, "limit", 20, "Maximum number of entries to show")

	return cmd
}
