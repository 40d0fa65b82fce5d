package storage

// sqlite.go — historial de slates por run.
//
// Estrategia:
//   - `slates`: UNA fila por run, con el slate completo como JSON.
//     El volumen es mínimo (3 runs/día) así que no hace falta normalizar:
//     el consumidor principal es LatestPrior, que necesita el slate entero
//     para calcular el delta y la estabilidad.
//   - Prune automático al arrancar: runs > 30d.

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/jmorales/wxslate/internal/domain"
	_ "modernc.org/sqlite"
)

const schema = `
-- Un slate completo por run
CREATE TABLE IF NOT EXISTS slates (
    run_id      TEXT PRIMARY KEY,
    target_date TEXT     NOT NULL,
    run_time    DATETIME NOT NULL,
    payload     TEXT     NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_slates_date ON slates(target_date, run_time DESC);
`

const retentionRuns = 30 * 24 * time.Hour // slates: 30 días

// SQLiteStore implementa ports.SlateStore usando SQLite (pure Go, sin CGo).
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore abre (o crea) la base de datos en la ruta dada.
// Aplica el schema y limpia runs antiguos.
func NewSQLiteStore(path string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("storage.NewSQLiteStore: open %q: %w", path, err)
	}
	db.SetMaxOpenConns(1) // SQLite es single-writer
	db.SetMaxIdleConns(1)

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("storage.NewSQLiteStore: apply schema: %w", err)
	}

	s := &SQLiteStore{db: db}
	s.pruneOld(context.Background())
	return s, nil
}

// SaveSlate persiste el slate de un run. Se llama exactamente una vez por run.
func (s *SQLiteStore) SaveSlate(ctx context.Context, slate domain.DailySlate) error {
	payload, err := json.Marshal(slate)
	if err != nil {
		return fmt.Errorf("storage.SaveSlate: marshal %s: %w", slate.RunID, err)
	}

	if _, err := s.db.ExecContext(ctx,
		`INSERT INTO slates (run_id, target_date, run_time, payload) VALUES (?, ?, ?, ?)`,
		slate.RunID, slate.TargetDateLocal, slate.RunTime.UTC(), string(payload),
	); err != nil {
		return fmt.Errorf("storage.SaveSlate: insert %s: %w", slate.RunID, err)
	}
	return nil
}

// LatestPrior devuelve el slate más reciente para la misma fecha objetivo
// anterior al run dado, o nil si no existe. Un payload corrupto cuenta como
// ausente: el delta degrada, el run continúa.
func (s *SQLiteStore) LatestPrior(ctx context.Context, targetDate string, before domain.DailySlate) (*domain.DailySlate, error) {
	var payload string
	err := s.db.QueryRowContext(ctx, `
		SELECT payload FROM slates
		WHERE target_date = ? AND run_time < ? AND run_id != ?
		ORDER BY run_time DESC
		LIMIT 1
	`, targetDate, before.RunTime.UTC(), before.RunID).Scan(&payload)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("storage.LatestPrior: query: %w", err)
	}

	var prior domain.DailySlate
	if err := json.Unmarshal([]byte(payload), &prior); err != nil {
		slog.Warn("prior slate unreadable, treating as absent",
			"target_date", targetDate, "error", err)
		return nil, nil
	}
	return &prior, nil
}

// Close cierra la conexión a la base de datos.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// pruneOld elimina slates antiguos para mantener la DB ligera.
func (s *SQLiteStore) pruneOld(ctx context.Context) {
	cutoff := time.Now().UTC().Add(-retentionRuns)
	s.db.ExecContext(ctx, `DELETE FROM slates WHERE run_time < ?`, cutoff)
}
