package cmd

import (
	"context"
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"os"
	"regexp"
	"strings"
	"sync"

	"github.com/manifoldco/promptui"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"talentlens/internal/logger"
	"talentlens/internal/talent"
)

const (
	PromptExportCSV  = "Export to CSV"
	PromptExportJSON = "Export to JSON"
	PromptQuit       = "Quit"
)

var errExit = errors.New("exit requested")

var exportPrompt = promptui.Select{
	Label: "Scan finished. What next?",
	Items: []string{PromptExportCSV, PromptExportJSON, PromptQuit},
}

var scanCmd = &cobra.Command{
	Use:   "scan [keyword]",
	Short: "Scan designers for a keyword and score them",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		scan(cmd, args[0])
	},
}

func init() {
	rootCmd.AddCommand(scanCmd)

	scanCmd.Flags().IntP("profiles", "p", 5, "how many designer profiles to process")
	scanCmd.Flags().IntP("images", "i", 3, "how many portfolio shots to download per designer")
}

func scan(cmd *cobra.Command, keyword string) {
	ctx := context.Background()

	logger, err := logger.New(viper.GetBool("json"), viper.GetBool("debug"))
	if err != nil {
		log.Fatalf("creating a logger: %s", err)
	}

	config, err := getConfig()
	if err != nil {
		logger.Fatal("getting a config", zap.Error(err))
	}

	deps, err := buildPipeline(ctx, config, logger)
	if err != nil {
		logger.Fatal("building the pipeline", zap.Error(err))
	}

	profiles, _ := cmd.Flags().GetInt("profiles")
	images, _ := cmd.Flags().GetInt("images")

	em := &terminalEmitter{logger: logger}
	deps.scanner.Scan(ctx, keyword, profiles, images, em)

	results := em.collected()
	if len(results) == 0 {
		logger.Info("exiting", zap.String("reason", "no designers scored"))
		return
	}

	logger.Info("scan finished", zap.Int("designers", len(results)))

	for {
		_, action, err := exportPrompt.Run()
		if err != nil {
			logger.Fatal("exiting", zap.Error(err))
		}

		if err := handleExportAction(action, keyword, results, logger); err != nil {
			if errors.Is(err, errExit) {
				return
			}
			logger.Fatal("exiting", zap.Error(err))
		}
	}
}

func handleExportAction(action, keyword string, results []*talent.Candidate, logger *zap.Logger) error {
	switch action {
	case PromptExportCSV:
		filename := exportFilename(keyword, "csv")
		if err := writeCSV(filename, results); err != nil {
			return fmt.Errorf("export csv: %w", err)
		}
		logger.Info("exported results", zap.String("filename", filename))
		return nil
	case PromptExportJSON:
		filename := exportFilename(keyword, "json")
		if err := writeJSON(filename, results); err != nil {
			return fmt.Errorf("export json: %w", err)
		}
		logger.Info("exported results", zap.String("filename", filename))
		return nil
	case PromptQuit:
		return errExit
	default:
		return fmt.Errorf("invalid action: %s", action)
	}
}

var filenameUnsafe = regexp.MustCompile(`[^a-zA-Z0-9_\-]`)

func exportFilename(keyword, ext string) string {
	base := filenameUnsafe.ReplaceAllString(strings.ToLower(keyword), "_")
	return fmt.Sprintf("%s_candidates.%s", base, ext)
}

func writeCSV(filename string, results []*talent.Candidate) error {
	f, err := os.Create(filename)
	if err != nil {
		return err
	}
	defer f.Close()

	writer := csv.NewWriter(f)
	writer.Write([]string{"Username", "Name", "Location", "Followers", "Score", "Decision", "Skills", "Profile URL"})
	for _, c := range results {
		score, decision := "", ""
		if c.Evaluation != nil {
			score = fmt.Sprintf("%d", c.Evaluation.OverallScore)
			decision = string(c.Evaluation.Recommendation.Decision)
		}
		writer.Write([]string{
			c.Username,
			c.Name,
			c.Location,
			c.Followers,
			score,
			decision,
			strings.Join(c.Skills, "; "),
			c.ProfileURL,
		})
	}
	writer.Flush()

	return writer.Error()
}

func writeJSON(filename string, results []*talent.Candidate) error {
	data, err := json.MarshalIndent(results, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(filename, data, 0o644)
}

// terminalEmitter prints scan progress to the log and keeps the scored
// candidates for the export menu.
type terminalEmitter struct {
	logger *zap.Logger

	mu      sync.Mutex
	results []*talent.Candidate
}

func (e *terminalEmitter) Log(msg string) {
	e.logger.Info(msg)
}

func (e *terminalEmitter) Result(v any) {
	cand, ok := v.(*talent.Candidate)
	if !ok {
		return
	}

	e.mu.Lock()
	e.results = append(e.results, cand)
	e.mu.Unlock()

	fields := []zap.Field{zap.String("username", cand.Username)}
	if cand.Evaluation != nil {
		fields = append(fields,
			zap.Int("score", cand.Evaluation.OverallScore),
			zap.String("decision", string(cand.Evaluation.Recommendation.Decision)),
		)
	}
	e.logger.Info("designer scored", fields...)
}

func (e *terminalEmitter) Error(msg string) {
	e.logger.Warn(msg)
}

func (e *terminalEmitter) Done() {}

func (e *terminalEmitter) collected() []*talent.Candidate {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.results
}
