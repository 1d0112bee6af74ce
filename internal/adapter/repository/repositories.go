package repository

import (
	"go.uber.org/zap"
	"gorm.io/gorm"

	domainRepo "github.com/wekeepgrowing/paygate/internal/domain/repository"
)

// Repositories holds all repository instances
type Repositories struct {
	EFTPayment domainRepo.EFTPaymentRepository
	Webhook    domainRepo.WebhookRepository
}

// NewRepositories creates new repository instances with database connection
func NewRepositories(db *gorm.DB, logger *zap.Logger) *Repositories {
	return &Repositories{
		EFTPayment: NewEFTPaymentRepository(db, logger.Named("eft_repository")),
		Webhook:    NewWebhookRepository(db, logger.Named("webhook_repository")),
	}
}
