package main

import (
	"context"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/enrich-cli/internal/model"
	"github.com/sells-group/enrich-cli/internal/rowsource"
	"github.com/sells-group/enrich-cli/internal/session"
	"github.com/sells-group/enrich-cli/internal/store"
)

var (
	runInput       string
	runOutput      string
	runFields      []string
	runEmailCol    string
	runNameCol     string
	runSheet       string
	runConcurrency int
	runLimit       int
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Enrich a CSV or XLSX contact file",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		rows, err := rowsource.Load(runInput, rowsource.Options{
			EmailColumn: runEmailCol,
			NameColumn:  runNameCol,
			SheetName:   runSheet,
			Limit:       runLimit,
		})
		if err != nil {
			return err
		}

		fields, err := parseFields(runFields)
		if err != nil {
			return err
		}

		st, err := initStore(ctx)
		if err != nil {
			return err
		}
		if st != nil {
			defer st.Close()
		}

		eng, err := initEngine(nil)
		if err != nil {
			return err
		}

		zap.L().Info("starting enrichment run",
			zap.String("input", runInput),
			zap.Int("rows", len(rows.Rows)),
			zap.Int("fields", len(fields)),
		)

		concurrency := runConcurrency
		if concurrency <= 0 {
			concurrency = cfg.Session.Concurrency
		}

		events := eng.Scheduler.Run(ctx, session.Request{
			Rows:        *rows,
			Fields:      fields,
			Concurrency: concurrency,
		})

		results := make([]model.RowEnrichmentResult, 0, len(rows.Rows))
		var sessionID, terminal string
		for ev := range events {
			sessionID = ev.SessionID
			switch ev.Type {
			case session.EventRowResult:
				if ev.Result != nil {
					results = append(results, *ev.Result)
				}
			case session.EventError:
				return eris.Errorf("session failed: %s", ev.Message)
			case session.EventComplete, session.EventCancelled:
				terminal = string(ev.Type)
			}
		}

		if st != nil {
			if err := journalRun(ctx, st, sessionID, terminal, results, len(rows.Rows)); err != nil {
				zap.L().Warn("journal run", zap.Error(err))
			}
		}

		completed := 0
		for _, res := range results {
			if res.Status == model.RowStatusCompleted {
				completed++
			}
		}
		zap.L().Info("enrichment run finished",
			zap.String("session_id", sessionID),
			zap.String("outcome", terminal),
			zap.Int("completed", completed),
			zap.Int("total", len(rows.Rows)),
		)

		if runOutput != "" {
			return writeOutputCSV(runOutput, rows, fields, results)
		}

		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(results)
	},
}

// parseFields turns comma-separated field names into the request list.
func parseFields(names []string) ([]model.EnrichmentField, error) {
	if len(names) == 0 {
		names = []string{"companyName", "companyDomain", "industry"}
	}
	if len(names) > session.MaxRequestedFields {
		return nil, eris.Errorf("at most %d fields per run, got %d", session.MaxRequestedFields, len(names))
	}

	fields := make([]model.EnrichmentField, 0, len(names))
	for _, name := range names {
		name = strings.TrimSpace(name)
		if name == "" {
			continue
		}
		fields = append(fields, model.EnrichmentField{
			Name:        name,
			DisplayName: name,
			Type:        model.FieldTypeString,
		})
	}
	if len(fields) == 0 {
		return nil, eris.New("no usable field names")
	}
	return fields, nil
}

// journalRun persists the finished run in one shot. Postgres takes the
// bulk COPY path; SQLite inserts row by row.
func journalRun(ctx context.Context, st store.Store, sessionID, terminal string, results []model.RowEnrichmentResult, totalRows int) error {
	if err := st.CreateSession(ctx, sessionID, totalRows); err != nil {
		return err
	}

	if pg, ok := st.(*store.PostgresStore); ok {
		if _, err := pg.BulkInsertRowResults(ctx, sessionID, results); err != nil {
			return err
		}
	} else {
		for _, res := range results {
			if err := st.CreateRowResult(ctx, sessionID, res); err != nil {
				return err
			}
		}
	}

	status := store.SessionStatusCompleted
	if terminal == string(session.EventCancelled) {
		status = store.SessionStatusCancelled
	}
	return st.UpdateSessionStatus(ctx, sessionID, status)
}

// writeOutputCSV writes the original columns plus one column per
// requested field, with confidence and source columns alongside.
func writeOutputCSV(path string, rows *model.RowSet, fields []model.EnrichmentField, results []model.RowEnrichmentResult) error {
	f, err := os.Create(path)
	if err != nil {
		return eris.Wrap(err, "create output file")
	}
	defer f.Close() //nolint:errcheck

	w := csv.NewWriter(f)

	header := append([]string{}, rows.Columns...)
	for _, fld := range fields {
		header = append(header, fld.Name, fld.Name+"_confidence", fld.Name+"_source")
	}
	header = append(header, "status")
	if err := w.Write(header); err != nil {
		return eris.Wrap(err, "write output header")
	}

	byIndex := make(map[int]model.RowEnrichmentResult, len(results))
	for _, res := range results {
		byIndex[res.RowIndex] = res
	}

	for i, row := range rows.Rows {
		record := make([]string, 0, len(header))
		for _, col := range rows.Columns {
			record = append(record, row[col])
		}

		res, ok := byIndex[i]
		for _, fld := range fields {
			if enr, found := res.Enrichments[fld.Name]; ok && found {
				record = append(record,
					fmt.Sprintf("%v", enr.Value),
					fmt.Sprintf("%.2f", enr.Confidence),
					enr.Source,
				)
			} else {
				record = append(record, "", "", "")
			}
		}
		status := string(model.RowStatusPending)
		if ok {
			status = string(res.Status)
		}
		record = append(record, status)

		if err := w.Write(record); err != nil {
			return eris.Wrap(err, "write output row")
		}
	}

	w.Flush()
	return eris.Wrap(w.Error(), "flush output")
}

func init() {
	runCmd.Flags().StringVarP(&runInput, "input", "i", "", "input CSV or XLSX file (required)")
	runCmd.Flags().StringVarP(&runOutput, "output", "o", "", "output CSV path (default: JSON to stdout)")
	runCmd.Flags().StringSliceVar(&runFields, "fields", nil, "enrichment fields to resolve (max 10)")
	runCmd.Flags().StringVar(&runEmailCol, "email-column", "", "email column header (default: detected)")
	runCmd.Flags().StringVar(&runNameCol, "name-column", "", "company name column header")
	runCmd.Flags().StringVar(&runSheet, "sheet", "", "XLSX sheet name (default: first sheet)")
	runCmd.Flags().IntVar(&runConcurrency, "concurrency", 0, "concurrent rows (default from config)")
	runCmd.Flags().IntVar(&runLimit, "limit", 0, "process at most N rows")
	_ = runCmd.MarkFlagRequired("input")
	rootCmd.AddCommand(runCmd)
}
