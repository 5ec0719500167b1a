package mongodb

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"

	"github.com/mamadbah2/farmboard/internal/domain/models"
	"github.com/mamadbah2/farmboard/internal/repository"
)

const (
	farmsCollection    = "farms"
	cropsCollection    = "crops"
	tasksCollection    = "tasks"
	expensesCollection = "expenses"
	incomeCollection   = "income"
	reportsCollection  = "financial_reports"
)

// ReportArchive stores generated financial reports.
type ReportArchive interface {
	SaveReport(ctx context.Context, report models.FinancialReport) error
}

// MongoDBRepository owns the client connection and hands out the entity stores
// and the report archive, all living in one database.
type MongoDBRepository struct {
	client *mongo.Client
	db     *mongo.Database
	logger *zap.Logger
}

// NewMongoDBRepository connects to uri and verifies the connection.
func NewMongoDBRepository(ctx context.Context, uri string, dbName string, logger *zap.Logger) (*MongoDBRepository, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	clientOptions := options.Client().ApplyURI(uri)
	client, err := mongo.Connect(ctx, clientOptions)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to mongodb: %w", err)
	}

	// Ping the database to verify connection
	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(ctx)
		return nil, fmt.Errorf("failed to ping mongodb: %w", err)
	}

	return &MongoDBRepository{
		client: client,
		db:     client.Database(dbName),
		logger: logger,
	}, nil
}

// Stores returns the five entity stores backed by this database.
func (r *MongoDBRepository) Stores() repository.Stores {
	return repository.Stores{
		Farms:    NewStore[models.Farm, models.FarmInput](r.db.Collection(farmsCollection), "farm", r.logger),
		Crops:    NewFarmScopedStore[models.Crop, models.CropInput](r.db.Collection(cropsCollection), "crop", r.logger),
		Tasks:    NewTaskStore(r.db.Collection(tasksCollection), r.logger),
		Expenses: NewFarmScopedStore[models.Expense, models.ExpenseInput](r.db.Collection(expensesCollection), "expense", r.logger),
		Income:   NewStore[models.Income, models.IncomeInput](r.db.Collection(incomeCollection), "income", r.logger),
	}
}

// SaveReport archives a financial report.
func (r *MongoDBRepository) SaveReport(ctx context.Context, report models.FinancialReport) error {
	collection := r.db.Collection(reportsCollection)
	_, err := collection.InsertOne(ctx, report)
	if err != nil {
		return fmt.Errorf("failed to insert financial report: %w", err)
	}
	r.logger.Info("financial report archived",
		zap.String("period", string(report.Period)),
		zap.String("start", report.Start.String()))
	return nil
}

// LatestReport returns the most recently generated archived report.
func (r *MongoDBRepository) LatestReport(ctx context.Context) (models.FinancialReport, error) {
	var report models.FinancialReport
	opts := options.FindOne().SetSort(bson.D{{Key: "generated_at", Value: -1}})
	err := r.db.Collection(reportsCollection).FindOne(ctx, bson.M{}, opts).Decode(&report)
	if err == mongo.ErrNoDocuments {
		return report, fmt.Errorf("latest financial report: %w", repository.ErrNotFound)
	}
	if err != nil {
		return report, fmt.Errorf("failed to load latest report: %w", err)
	}
	return report, nil
}

// Drop removes every collection of the database. Used by tests.
func (r *MongoDBRepository) Drop(ctx context.Context) error {
	return r.db.Drop(ctx)
}

// Close closes the MongoDB connection.
func (r *MongoDBRepository) Close(ctx context.Context) error {
	return r.client.Disconnect(ctx)
}
