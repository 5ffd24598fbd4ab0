package repository

import (
	"encoding/csv"
	"os"
	"sync"
	"time"

	"project_waAgent/internal/entities"
)

// CSVLeadBackup appends captured leads to a local CSV file. It is a safety
// net for operators who want leads to survive a database outage; the file is
// append-only and never read back by the application.
type CSVLeadBackup struct {
	mu   sync.Mutex
	path string
}

func NewCSVLeadBackup(path string) *CSVLeadBackup {
	return &CSVLeadBackup{path: path}
}

var csvHeader = []string{
	"captured_at", "client_id", "agent_id", "instance", "from_number",
	"nome", "telefone", "assunto", "status", "origem",
}

func (b *CSVLeadBackup) Append(lead *entities.Lead) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	writeHeader := false
	if info, err := os.Stat(b.path); err != nil || info.Size() == 0 {
		writeHeader = true
	}

	f, err := os.OpenFile(b.path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return err
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if writeHeader {
		if err := w.Write(csvHeader); err != nil {
			return err
		}
	}
	if err := w.Write([]string{
		time.Now().UTC().Format(time.RFC3339),
		lead.ClientID, lead.AgentID, lead.Instance, lead.FromNumber,
		lead.Nome, lead.Telefone, lead.Assunto, lead.Status, lead.Origem,
	}); err != nil {
		return err
	}
	w.Flush()
	return w.Error()
}
