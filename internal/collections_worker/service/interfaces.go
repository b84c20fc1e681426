package service

import (
	"context"

	"github.com/microfin-loan-office/internal/domain/shared"
)

// DispatchService delivers customer alert requests pulled off the topic.
type DispatchService interface {
	DispatchAlert(ctx context.Context, request *shared.AlertRequest) error
}
