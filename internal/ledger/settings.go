package ledger

import (
	"context"
	"strings"

	"billing/internal/domain"
)

type SettingsInput struct {
	BillLimit      int
	CompanyName    string
	CompanyAddress string
	CompanyPhone   string
	CompanyEmail   string
}

func (l *Ledger) Settings() domain.Settings {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.settings
}

// UpdateSettings replaces the configurable fields. The bill count stays
// derived from the stored bills.
func (l *Ledger) UpdateSettings(ctx context.Context, in SettingsInput) (domain.Settings, error) {
	if in.BillLimit < 1 {
		return domain.Settings{}, invalid("bill limit must be at least 1")
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	settings := domain.Settings{
		BillLimit:        in.BillLimit,
		CurrentBillCount: len(l.bills),
		CompanyName:      strings.TrimSpace(in.CompanyName),
		CompanyAddress:   strings.TrimSpace(in.CompanyAddress),
		CompanyPhone:     strings.TrimSpace(in.CompanyPhone),
		CompanyEmail:     strings.TrimSpace(in.CompanyEmail),
	}
	if err := l.commit(ctx, domain.Changeset{Settings: &settings}); err != nil {
		return domain.Settings{}, err
	}
	l.log.Info().Int("bill_limit", settings.BillLimit).Msg("settings saved")
	return settings, nil
}
