package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/leadvett/backend/internal/config"
	"github.com/leadvett/backend/internal/generator"
	"github.com/leadvett/backend/internal/leads"
	"github.com/leadvett/backend/internal/models"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

// Fixture is a lead submission stored on disk. JSON fixtures parse as YAML too.
type Fixture struct {
	Schema            models.FormSchema `yaml:"schema"`
	RejectOnHardFloor bool              `yaml:"reject_on_hard_floor"`
	Questions         []models.Question `yaml:"questions"`
	Answers           models.AnswerSet  `yaml:"answers"`
}

func (f *Fixture) form() *models.Form {
	schema := f.Schema
	if schema == "" {
		schema = models.SchemaCustom
	}
	return &models.Form{Schema: schema, Questions: f.Questions, RejectOnHardFloor: f.RejectOnHardFloor}
}

func LoadFixture(path string) (*Fixture, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read fixture: %w", err)
	}
	var f Fixture
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse fixture %s: %w", path, err)
	}
	if f.Answers == nil {
		return nil, fmt.Errorf("fixture %s has no answers", path)
	}
	if f.Schema != models.SchemaFixed && len(f.Questions) == 0 {
		return nil, fmt.Errorf("fixture %s has no questions", path)
	}
	return &f, nil
}

func ScoreCmd() *cobra.Command {
	var (
		file    string
		offline bool
	)
	cmd := &cobra.Command{
		Use:   "score",
		Short: "Score a lead fixture and print the verdict as JSON",
		RunE: func(cmd *cobra.Command, args []string) error {
			fixture, err := LoadFixture(file)
			if err != nil {
				return err
			}

			narrator := generator.NewNarrator(nil, 0)
			if !offline {
				aiCfg := config.LoadAIConfig()
				narrator = generator.NewNarrator(generator.NewLLMClient(aiCfg), aiCfg.Timeout())
			}

			verdict, err := scoreFixture(cmd.Context(), narrator, fixture)
			if err != nil {
				return err
			}

			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(verdict)
		},
	}
	cmd.Flags().StringVarP(&file, "file", "f", "", "Path to a YAML or JSON lead fixture")
	cmd.Flags().BoolVar(&offline, "offline", false, "Skip narrative generation and use the fallback text")
	cmd.MarkFlagRequired("file")
	return cmd
}

func scoreFixture(ctx context.Context, narrator leads.Narrator, f *Fixture) (*models.Verdict, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	return leads.NewAnalyzer(narrator).Analyze(ctx, leads.InputForForm(f.form(), f.Answers))
}
