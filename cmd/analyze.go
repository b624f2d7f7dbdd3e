package cmd

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"slices"
	"strings"
	"syscall"

	"github.com/manifoldco/promptui"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/reasm-dev/reasm/internal/analysis"
	"github.com/reasm-dev/reasm/internal/logger"
	"github.com/reasm-dev/reasm/internal/pipeline"
)

var strategies = []string{"hybrid", "llm", "embedding"}

var analyzeCmd = &cobra.Command{
	Use:   "analyze",
	Short: "Analyze one resume against a job description and print the result as JSON",
	Run: func(cmd *cobra.Command, _ []string) {
		analyze(cmd)
	},
}

func init() {
	rootCmd.AddCommand(analyzeCmd)

	analyzeCmd.Flags().StringP("resume", "r", "", "resume document (PDF or plain text)")
	analyzeCmd.Flags().String("jd-file", "", "file with the job description; read from stdin or prompted when unset")
	analyzeCmd.Flags().String("jd", "", "job description text")
	analyzeCmd.Flags().StringP("strategy", "s", "", "matching strategy: hybrid, llm or embedding")
	analyzeCmd.MarkFlagRequired("resume")
}

func analyze(cmd *cobra.Command) {
	logger, err := logger.New(viper.GetBool("json"), viper.GetBool("debug"))
	if err != nil {
		log.Fatalf("creating a logger: %s", err)
	}

	config, err := getConfig()
	if err != nil {
		logger.Fatal("getting a config", zap.Error(err))
	}

	interactive := stdinIsTerminal()

	strategy, err := chooseStrategy(cmd.Flag("strategy").Value.String(), interactive)
	if err != nil {
		logger.Fatal("choosing a strategy", zap.Error(err))
	}
	if strategy != "" {
		config.Matching.Strategy = strategy
	}

	resumePath := cmd.Flag("resume").Value.String()
	document, err := os.ReadFile(resumePath)
	if err != nil {
		logger.Fatal("reading the resume", zap.String("path", resumePath), zap.Error(err))
	}

	jd, err := readJobDescription(cmd.Flag("jd").Value.String(), cmd.Flag("jd-file").Value.String(), interactive, config.Pipeline.MinJDLength)
	if err != nil {
		logger.Fatal("reading the job description", zap.Error(err))
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	comps, err := buildComponents(ctx, config, logger)
	if err != nil {
		logger.Fatal("building the analysis pipeline", zap.Error(err))
	}

	report, runErr := comps.pipeline.Run(ctx, pipeline.Input{Document: document, JobDescription: jd})
	if err := comps.Close(); err != nil {
		logger.Warn("closing the similarity index", zap.Error(err))
	}
	if runErr != nil {
		logger.Fatal("analysis failed",
			zap.String("kind", analysis.KindOf(runErr).String()),
			zap.Error(runErr),
		)
	}

	if report.Degraded {
		logger.Warn("analysis is degraded", zap.Strings("notes", report.DegradationNotes))
	}

	out, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		logger.Fatal("encoding the report", zap.Error(err))
	}
	fmt.Println(string(out))
}

func chooseStrategy(flag string, interactive bool) (string, error) {
	flag = strings.ToLower(strings.TrimSpace(flag))
	if flag != "" {
		if !slices.Contains(strategies, flag) {
			return "", fmt.Errorf("unknown strategy %q, use one of %s", flag, strings.Join(strategies, ", "))
		}
		return flag, nil
	}
	if !interactive {
		return "", nil
	}

	prompt := promptui.Select{
		Label: "Matching strategy",
		Items: strategies,
	}
	_, selected, err := prompt.Run()
	if err != nil {
		return "", err
	}
	return selected, nil
}

func readJobDescription(text, path string, interactive bool, minLength int) (string, error) {
	if strings.TrimSpace(text) != "" {
		return text, nil
	}
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return "", err
		}
		return string(data), nil
	}

	if !interactive {
		data, err := io.ReadAll(os.Stdin)
		if err != nil {
			return "", fmt.Errorf("reading stdin: %w", err)
		}
		return string(data), nil
	}

	prompt := promptui.Prompt{
		Label: "Job description",
		Validate: func(input string) error {
			if len(strings.TrimSpace(input)) < minLength {
				return errors.New("job description is too short")
			}
			return nil
		},
	}
	return prompt.Run()
}

func stdinIsTerminal() bool {
	info, err := os.Stdin.Stat()
	if err != nil {
		return false
	}
	return info.Mode()&os.ModeCharDevice != 0
}
