package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/ehr/interop/internal/config"
	"github.com/ehr/interop/internal/platform/hl7v2"
	"github.com/ehr/interop/internal/platform/middleware"
)

func main() {
	rootCmd := &cobra.Command{
		Use:          "hl7-engine",
		Short:        "HL7 v2.x parsing and acknowledgment engine",
		SilenceUsage: true,
	}

	rootCmd.AddCommand(parseCmd())
	rootCmd.AddCommand(ackCmd())
	rootCmd.AddCommand(batchCmd())
	rootCmd.AddCommand(serveCmd())

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func parseCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "parse [file]",
		Short: "Parse one message and print it as JSON (reads stdin without a file)",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			env, err := setup(cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			raw, err := readInput(cmd.InOrStdin(), args)
			if err != nil {
				return err
			}

			msg, err := env.parser.Parse(raw)
			if err != nil {
				return fmt.Errorf("parse: %w", err)
			}

			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(map[string]interface{}{
				"type":      msg.Type().String(),
				"kind":      msg.Kind(),
				"controlId": msg.ControlID(),
				"version":   msg.Version(),
				"header":    msg.Header,
				"message":   msg.Variant,
				"unknown":   msg.Unknown(),
				"errors":    msg.Errors,
			})
		},
	}
}

func ackCmd() *cobra.Command {
	var code string
	cmd := &cobra.Command{
		Use:   "ack [file]",
		Short: "Parse one message and print its acknowledgment",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			env, err := setup(cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			raw, err := readInput(cmd.InOrStdin(), args)
			if err != nil {
				return err
			}

			var res *hl7v2.Result
			if code == "" {
				res, err = env.proc.Process(raw)
			} else {
				ackCode, perr := hl7v2.ParseAckCode(code)
				if perr != nil {
					return perr
				}
				res, err = env.proc.ProcessWithCode(raw, ackCode)
			}
			if err != nil {
				return err
			}

			// Segment terminators are CR on the wire; print one per line.
			for _, seg := range res.Ack.Segments() {
				fmt.Fprintln(cmd.OutOrStdout(), hl7v2.EncodeSegment(seg, res.Ack.Delimiters))
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&code, "code", "", "acknowledgment code (AA, AE, AR, CA, CE, CR); chosen from the parse outcome when empty")
	return cmd
}

func batchCmd() *cobra.Command {
	var workers int
	cmd := &cobra.Command{
		Use:   "batch [file]",
		Short: "Parse every message in a capture file and print a summary",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			env, err := setup(cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			raw, err := readInput(cmd.InOrStdin(), args)
			if err != nil {
				return err
			}
			if workers <= 0 {
				workers = env.cfg.BatchWorkers
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			results, err := env.proc.ProcessBatch(ctx, raw, workers)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			var rejected, withErrors int
			for i, res := range results {
				if res.Err != nil {
					rejected++
					fmt.Fprintf(out, "%d\t%s\trejected\t%v\n", i+1, res.Ack.Code, res.Err)
					continue
				}
				msg := res.Message
				if msg.Errors.HasErrors() {
					withErrors++
				}
				fmt.Fprintf(out, "%d\t%s\t%s\t%s\terrors=%d warnings=%d\n",
					i+1, res.Ack.Code, msg.Type(), msg.ControlID(),
					len(msg.Errors.Errors()), len(msg.Errors.Warnings()))
			}
			fmt.Fprintf(out, "messages=%d rejected=%d with_errors=%d\n", len(results), rejected, withErrors)
			return nil
		},
	}
	cmd.Flags().IntVar(&workers, "workers", 0, "concurrent parses (defaults to HL7_BATCH_WORKERS)")
	return cmd
}

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the HL7v2 inspection API",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServer()
		},
	}
}

type environment struct {
	cfg    *config.Config
	logger zerolog.Logger
	parser *hl7v2.Parser
	proc   *hl7v2.Processor
}

// setup loads configuration and builds the parser and processor. CLI
// commands log to stderr so stdout stays machine readable.
func setup(logOut io.Writer) (*environment, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	level, _ := cfg.ZerologLevel()
	logger := zerolog.New(logOut).Level(level).With().Timestamp().Logger()
	if cfg.IsDev() {
		logger = zerolog.New(zerolog.ConsoleWriter{Out: logOut}).Level(level).With().Timestamp().Logger()
	}

	opts := []hl7v2.Option{
		hl7v2.WithMaxMessageSize(cfg.MaxMessageSize),
		hl7v2.WithDefaultVersion(cfg.DefaultVersion),
		hl7v2.WithCharsetDecoding(cfg.DecodeCharset),
	}
	if cfg.ProfileFile != "" {
		table, err := hl7v2.LoadProfileFile(cfg.ProfileFile)
		if err != nil {
			return nil, err
		}
		opts = append(opts, hl7v2.WithProfiles(table))
		logger.Debug().Str("file", cfg.ProfileFile).Msg("loaded HL7 profile table")
	}

	parser := hl7v2.NewParser(opts...)
	proc := hl7v2.NewProcessor(parser, logger)
	proc.DetectDuplicates(cfg.DuplicateWindow)
	return &environment{
		cfg:    cfg,
		logger: logger,
		parser: parser,
		proc:   proc,
	}, nil
}

func readInput(stdin io.Reader, args []string) ([]byte, error) {
	if len(args) == 0 || args[0] == "-" {
		data, err := io.ReadAll(stdin)
		if err != nil {
			return nil, fmt.Errorf("read stdin: %w", err)
		}
		return data, nil
	}
	data, err := os.ReadFile(args[0])
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", args[0], err)
	}
	return data, nil
}

func runServer() error {
	env, err := setup(os.Stdout)
	if err != nil {
		return err
	}
	logger := env.logger
	cfg := env.cfg

	// Echo server
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	// Global middleware
	e.Use(middleware.Recovery(logger))
	e.Use(middleware.RequestID())
	e.Use(middleware.Logger(logger))
	e.Use(middleware.RequestTimeout(cfg.RequestTimeout, logger))
	e.Use(middleware.SecurityHeaders(!cfg.IsDev()))

	rl := middleware.DefaultRateLimitConfig()
	rl.RequestsPerSecond = cfg.RateLimitRPS
	rl.Burst = cfg.RateLimitBurst

	apiV1 := e.Group("/api/v1")
	apiV1.Use(middleware.RateLimit(rl))
	apiV1.Use(middleware.BodyLimit(int64(cfg.MaxMessageSize)))

	hl7Handler := hl7v2.NewHandler(env.proc)
	hl7Handler.RegisterRoutes(apiV1)

	e.GET("/health", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
	})

	// Graceful shutdown
	go func() {
		addr := ":" + cfg.Port
		logger.Info().Str("addr", addr).Msg("starting server")
		if err := e.Start(addr); err != nil && err != http.ErrServerClosed {
			logger.Fatal().Err(err).Msg("server error")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info().Msg("shutting down server")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(ctx); err != nil {
		logger.Fatal().Err(err).Msg("server shutdown failed")
	}
	logger.Info().Msg("server stopped")
	return nil
}
