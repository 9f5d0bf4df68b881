package services

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/Nivk0/ktpilot-rag-bot/internal/logger"
)

// CronService periodically purges expired password reset codes. Mongo's
// TTL index already expires them eventually; this keeps the collection
// tight between TTL sweeps.
type CronService struct {
	resetCodesCol *mongo.Collection
	interval      time.Duration
	stopChan      chan struct{}
}

func NewCronService(resetCodesCol *mongo.Collection) *CronService {
	return &CronService{
		resetCodesCol: resetCodesCol,
		interval:      time.Hour,
		stopChan:      make(chan struct{}),
	}
}

func (c *CronService) Start() {
	ticker := time.NewTicker(c.interval)
	defer ticker.Stop()

	logger.Info("Starting reset code cleanup service")

	for {
		select {
		case <-ticker.C:
			ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
			result, err := c.resetCodesCol.DeleteMany(ctx, bson.M{
				"expires_at": bson.M{"$lt": time.Now()},
			})
			cancel()
			if err != nil {
				logger.Error("Reset code cleanup failed", "error", err)
				continue
			}
			if result.DeletedCount > 0 {
				logger.Info("Purged expired reset codes", "count", result.DeletedCount)
			}

		case <-c.stopChan:
			logger.Info("Stopping reset code cleanup service")
			return
		}
	}
}

func (c *CronService) Stop() {
	close(c.stopChan)
}
