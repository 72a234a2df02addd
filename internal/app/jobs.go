package app

import (
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"github.com/veriseal/veriseal/internal/domain"
)

var cronParser = cron.NewParser(
	cron.SecondOptional | cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor,
)

func (a *Application) initJob() {
	loc, _ := time.LoadLocation(a.appConfig.System.Location)
	if loc == nil {
		loc = time.Local
	}
	a.sched = cron.New(cron.WithParser(cronParser), cron.WithLocation(loc))

	// Daily digest of yesterday's verification outcomes for operators who
	// only read logs.
	_, err := a.sched.AddFunc("@daily", a.logDailyScanDigest)
	if err != nil {
		zap.L().Error("failed to schedule scan digest job", zap.Error(err))
	}
}

func (a *Application) logDailyScanDigest() {
	since := time.Now().AddDate(0, 0, -1)

	type statusCount struct {
		Status string
		Total  int64
	}
	var counts []statusCount
	err := a.gormDB.Model(&domain.ScanRecord{}).
		Select("status, count(*) as total").
		Where("created_at >= ?", since).
		Group("status").
		Scan(&counts).Error
	if err != nil {
		zap.L().Error("scan digest query failed", zap.Error(err))
		return
	}

	fields := []zap.Field{zap.Time("since", since)}
	var total int64
	for _, c := range counts {
		fields = append(fields, zap.Int64(c.Status, c.Total))
		total += c.Total
	}
	fields = append(fields, zap.Int64("total", total))
	zap.L().Info("daily scan digest", fields...)
}
