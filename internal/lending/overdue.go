package lending

import (
	"context"
	"fmt"
	"log"

	"github.com/robfig/cron/v3"
)

// OverdueMonitor は定期的に期限切れの貸出を集計してログに出す。
type OverdueMonitor struct {
	svc  *Service
	cron *cron.Cron
}

func NewOverdueMonitor(svc *Service, spec string) (*OverdueMonitor, error) {
	m := &OverdueMonitor{svc: svc, cron: cron.New()}
	if _, err := m.cron.AddFunc(spec, func() { m.Scan(context.Background()) }); err != nil {
		return nil, fmt.Errorf("invalid overdue_scan_cron %q: %w", spec, err)
	}
	return m, nil
}

func (m *OverdueMonitor) Start() {
	m.cron.Start()
	log.Println("[INFO] overdue monitor started")
}

// Stop は実行中のスキャンが終わるまで待つ。
func (m *OverdueMonitor) Stop() {
	<-m.cron.Stop().Done()
	log.Println("[INFO] overdue monitor stopped")
}

// Scan は1回分の集計。件数を返す（テスト用）。
func (m *OverdueMonitor) Scan(ctx context.Context) int {
	loans, err := m.svc.ListOverdue(ctx)
	if err != nil {
		log.Printf("[ERROR] overdue scan failed: %v", err)
		return 0
	}
	if len(loans) == 0 {
		return 0
	}

	now := m.svc.Now()
	oldest := loans[0] // due_at 昇順
	log.Printf("[WARN] %d overdue loans (oldest %s: book=%s member=%s, %d days overdue)",
		len(loans), oldest.LoanID, oldest.BookID, oldest.MemberID, oldest.DaysOverdue(now))
	return len(loans)
}
