// Package mongo provides MongoDB implementations of the domain repositories.
// The transaction history is append-mostly and read by account, which suits
// a document store better than the relational core.
package mongo

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/microfin-loan-office/internal/domain/transaction"
)

const (
	// TransactionCollectionName is the name of the transaction collection in MongoDB
	TransactionCollectionName = "transactions"
)

// TransactionRepository implements the transaction.Repository interface for MongoDB
type TransactionRepository struct {
	db     *mongo.Database
	logger *slog.Logger
}

// NewTransactionRepository creates a new MongoDB transaction repository
func NewTransactionRepository(logger *slog.Logger, db *mongo.Database) transaction.Repository {
	return &TransactionRepository{
		db:     db,
		logger: logger,
	}
}

// Create stores a new transaction record after checking for duplicates.
// Returns ErrDuplicateTransaction if a record with the same ID exists.
func (r *TransactionRepository) Create(ctx context.Context, trx *transaction.Transaction) error {
	collection := r.db.Collection(TransactionCollectionName)

	existing, err := r.GetByID(ctx, trx.ID)
	if err != nil && !errors.Is(err, transaction.ErrTransactionNotFound{}) {
		r.logger.Error("Failed to check for existing transaction",
			"id", trx.ID.String(),
			"error", err)
		return fmt.Errorf("failed to check for existing transaction: %w", err)
	}

	if existing != nil {
		return transaction.ErrDuplicateTransaction{TrxNo: trx.TrxNo}
	}

	_, err = collection.InsertOne(ctx, trx)
	if err != nil {
		r.logger.Error("Failed to create transaction",
			"id", trx.ID.String(),
			"error", err)
		return fmt.Errorf("failed to create transaction: %w", err)
	}

	return nil
}

// GetByID retrieves a transaction by its ID.
// Returns ErrTransactionNotFound if no record exists.
func (r *TransactionRepository) GetByID(ctx context.Context, id uuid.UUID) (*transaction.Transaction, error) {
	collection := r.db.Collection(TransactionCollectionName)

	filter := bson.M{"id": id}
	var trx transaction.Transaction
	err := collection.FindOne(ctx, filter).Decode(&trx)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, transaction.ErrTransactionNotFound{ID: id}
		}
		r.logger.Error("Failed to get transaction",
			"id", id.String(),
			"error", err)
		return nil, fmt.Errorf("failed to get transaction: %w", err)
	}

	return &trx, nil
}

// GetByTrxNo retrieves a transaction by its reference number.
// Returns nil if no record exists.
func (r *TransactionRepository) GetByTrxNo(ctx context.Context, trxNo string) (*transaction.Transaction, error) {
	if trxNo == "" {
		return nil, errors.New("transaction number cannot be empty")
	}

	collection := r.db.Collection(TransactionCollectionName)

	filter := bson.M{"trx_no": trxNo}
	var trx transaction.Transaction
	err := collection.FindOne(ctx, filter).Decode(&trx)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, nil // No transaction with this reference
		}
		r.logger.Error("Failed to get transaction by number",
			"trx_no", trxNo,
			"error", err)
		return nil, fmt.Errorf("failed to get transaction by number: %w", err)
	}

	return &trx, nil
}

// GetByAccountID retrieves paginated transaction records for an account.
// Results are sorted by transaction time in descending order (newest first).
func (r *TransactionRepository) GetByAccountID(ctx context.Context, accountID uuid.UUID, limit, offset int) ([]*transaction.Transaction, error) {
	collection := r.db.Collection(TransactionCollectionName)

	filter := bson.M{"account_id": accountID}
	opts := options.Find().
		SetSort(bson.M{"trx_date": -1}).
		SetSkip(int64(offset)).
		SetLimit(int64(limit))

	cursor, err := collection.Find(ctx, filter, opts)
	if err != nil {
		r.logger.Error("Failed to get transactions",
			"account_id", accountID.String(),
			"error", err)
		return nil, fmt.Errorf("failed to get transactions: %w", err)
	}
	defer cursor.Close(ctx)

	var transactions []*transaction.Transaction
	if err := cursor.All(ctx, &transactions); err != nil {
		r.logger.Error("Failed to decode transactions",
			"account_id", accountID.String(),
			"error", err)
		return nil, fmt.Errorf("failed to decode transactions: %w", err)
	}

	return transactions, nil
}

// CountByAccountID counts the total number of transaction records for an account
func (r *TransactionRepository) CountByAccountID(ctx context.Context, accountID uuid.UUID) (int64, error) {
	collection := r.db.Collection(TransactionCollectionName)

	filter := bson.M{"account_id": accountID}
	count, err := collection.CountDocuments(ctx, filter)
	if err != nil {
		r.logger.Error("Failed to count transactions",
			"account_id", accountID.String(),
			"error", err)
		return 0, fmt.Errorf("failed to count transactions: %w", err)
	}

	return count, nil
}

// GetByTimeRange retrieves paginated transaction records within the time window.
// Results are sorted by transaction time in descending order for recent-first access.
func (r *TransactionRepository) GetByTimeRange(ctx context.Context, startTime, endTime time.Time, limit, offset int) ([]*transaction.Transaction, error) {
	collection := r.db.Collection(TransactionCollectionName)

	filter := bson.M{
		"trx_date": bson.M{
			"$gte": startTime,
			"$lte": endTime,
		},
	}
	opts := options.Find().
		SetSort(bson.M{"trx_date": -1}).
		SetSkip(int64(offset)).
		SetLimit(int64(limit))

	cursor, err := collection.Find(ctx, filter, opts)
	if err != nil {
		r.logger.Error("Failed to get transactions by time range",
			"start_time", startTime,
			"end_time", endTime,
			"error", err)
		return nil, fmt.Errorf("failed to get transactions by time range: %w", err)
	}
	defer cursor.Close(ctx)

	var transactions []*transaction.Transaction
	if err := cursor.All(ctx, &transactions); err != nil {
		r.logger.Error("Failed to decode transactions",
			"start_time", startTime,
			"end_time", endTime,
			"error", err)
		return nil, fmt.Errorf("failed to decode transactions: %w", err)
	}

	return transactions, nil
}
