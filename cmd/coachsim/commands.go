package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"text/tabwriter"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/tbourn/go-coach-sim/internal/domain"
	"github.com/tbourn/go-coach-sim/internal/evaluation"
	"github.com/tbourn/go-coach-sim/internal/persona"
	"github.com/tbourn/go-coach-sim/internal/repo"
)

func newMigrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create or update the database schema",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			db, err := openDB(cfg.DBPath)
			if err != nil {
				return err
			}
			defer repo.Close(db)
			purged, err := repo.PurgeTurnKeys(cmd.Context(), db, time.Now().UTC())
			if err != nil {
				return fmt.Errorf("purge turn keys: %w", err)
			}
			log.Info().Str("db", cfg.DBPath).Int64("expired_turn_keys", purged).Msg("schema up to date")
			fmt.Fprintf(cmd.OutOrStdout(), "migrated %s\n", cfg.DBPath)
			return nil
		},
	}
}

func newPersonasCmd() *cobra.Command {
	var (
		city   string
		cities bool
	)
	cmd := &cobra.Command{
		Use:   "personas",
		Short: "List the simulated clients",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cat, err := persona.Load()
			if err != nil {
				return err
			}
			if cities {
				for _, c := range cat.Cities() {
					fmt.Fprintln(cmd.OutOrStdout(), c)
				}
				return nil
			}
			list := cat.List()
			if city != "" {
				list = cat.ByCity(city)
			}
			return printPersonas(cmd.OutOrStdout(), list)
		},
	}
	cmd.Flags().StringVar(&city, "city", "", "only personas from this city")
	cmd.Flags().BoolVar(&cities, "cities", false, "list the cities instead of the personas")
	return cmd
}

func printPersonas(w io.Writer, list []persona.Profile) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tNAME\tAGE\tCITY\tOCCUPATION")
	for _, p := range list {
		fmt.Fprintf(tw, "%s\t%s\t%d\t%s\t%s\n", p.ID, p.Name, p.Age, p.City, p.Occupation)
	}
	return tw.Flush()
}

func newEvaluateCmd() *cobra.Command {
	var personaID, file string
	cmd := &cobra.Command{
		Use:   "evaluate",
		Short: "Evaluate a saved transcript and print the report as JSON",
		Long: `evaluate reads a JSON array of messages ({"role":"coach"|"client","content":...})
and prints the full analysis: report, session metrics, cultural context and
improvement plan. Use --file - to read from stdin.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cat, err := persona.Load()
			if err != nil {
				return err
			}
			p, err := cat.Get(personaID)
			if err != nil {
				return err
			}
			msgs, err := readTranscript(cmd.InOrStdin(), file)
			if err != nil {
				return err
			}
			analysis := evaluation.New().Analyze(evaluation.Transcript{PersonaID: p.ID, Messages: msgs}, p)
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(analysis)
		},
	}
	cmd.Flags().StringVar(&personaID, "persona", "", "persona id")
	cmd.Flags().StringVar(&file, "file", "", "transcript JSON file, or - for stdin")
	_ = cmd.MarkFlagRequired("persona")
	_ = cmd.MarkFlagRequired("file")
	return cmd
}

func readTranscript(stdin io.Reader, file string) ([]domain.Message, error) {
	r := stdin
	if file != "-" {
		f, err := os.Open(file)
		if err != nil {
			return nil, err
		}
		defer f.Close()
		r = f
	}
	var msgs []domain.Message
	if err := json.NewDecoder(r).Decode(&msgs); err != nil {
		return nil, fmt.Errorf("decode transcript: %w", err)
	}
	for i, m := range msgs {
		if !m.IsCoach() && !m.IsClient() {
			return nil, fmt.Errorf("message %d: unknown role %q", i, m.Role)
		}
	}
	return msgs, nil
}
