package accounts

import (
	"context"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/userdir/internal/common"
	"github.com/dmitrijs2005/userdir/internal/server/models"
	"github.com/dmitrijs2005/userdir/internal/timex"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
	"go.mongodb.org/mongo-driver/mongo/writeconcern"
)

const (
	accountsCollection = "accounts"
	countersCollection = "counters"

	// maxUpdateAttempts bounds the optimistic retry loop in Update.
	maxUpdateAttempts = 5
)

var errVersionConflict = errors.New("concurrent modification")

type accountDocument struct {
	ID           int64   `bson:"_id"`
	Username     string  `bson:"username"`
	Password     string  `bson:"password"`
	Status       bool    `bson:"status"`
	CreationDate string  `bson:"creation_date"`
	Birthday     *string `bson:"birthday,omitempty"`
	Token        string  `bson:"token"`
	Version      int64   `bson:"version"`
}

func documentFromAccount(acc *models.Account) accountDocument {
	doc := accountDocument{
		ID:           acc.ID,
		Username:     acc.Username,
		Password:     acc.Password,
		Status:       acc.Status,
		CreationDate: acc.CreationDate.String(),
		Token:        acc.Token,
	}
	if acc.Birthday != nil {
		b := acc.Birthday.String()
		doc.Birthday = &b
	}
	return doc
}

func accountFromDocument(doc accountDocument) (*models.Account, error) {
	created, err := timex.ParseDate(doc.CreationDate)
	if err != nil {
		return nil, fmt.Errorf("account %d: creation date: %w", doc.ID, err)
	}

	acc := &models.Account{
		ID:           doc.ID,
		Username:     doc.Username,
		Password:     doc.Password,
		Status:       doc.Status,
		CreationDate: created,
		Token:        doc.Token,
	}

	if doc.Birthday != nil {
		b, err := timex.ParseDate(*doc.Birthday)
		if err != nil {
			return nil, fmt.Errorf("account %d: birthday: %w", doc.ID, err)
		}
		acc.Birthday = &b
	}

	return acc, nil
}

// MongoRepository keeps accounts in a MongoDB collection. Integer ids come
// from a counters collection so they stay compatible with the SQL stores.
type MongoRepository struct {
	client   *mongo.Client
	accounts *mongo.Collection
	counters *mongo.Collection
}

// NewMongoRepository connects to uri, selects database and ensures the
// unique username index exists.
func NewMongoRepository(ctx context.Context, uri, database string) (*MongoRepository, error) {
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("mongo connect: %w", err)
	}

	if err := client.Ping(ctx, readpref.Primary()); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("mongo ping: %w", err)
	}

	// writes are acknowledged only once journaled, which is what Flush relies on
	journal := true
	wc := writeconcern.Majority()
	wc.Journal = &journal

	db := client.Database(database)
	repo := &MongoRepository{
		client:   client,
		accounts: db.Collection(accountsCollection, options.Collection().SetWriteConcern(wc)),
		counters: db.Collection(countersCollection, options.Collection().SetWriteConcern(wc)),
	}

	_, err = repo.accounts.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "username", Value: 1}},
		Options: options.Index().SetUnique(true).SetName("accounts_username_key"),
	})
	if err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("mongo index: %w", err)
	}

	return repo, nil
}

func (r *MongoRepository) nextID(ctx context.Context) (int64, error) {
	var counter struct {
		Seq int64 `bson:"seq"`
	}

	opts := options.FindOneAndUpdate().SetUpsert(true).SetReturnDocument(options.After)
	err := r.counters.FindOneAndUpdate(ctx,
		bson.M{"_id": accountsCollection},
		bson.M{"$inc": bson.M{"seq": 1}},
		opts,
	).Decode(&counter)
	if err != nil {
		return 0, fmt.Errorf("db error: %w", err)
	}

	return counter.Seq, nil
}

func (r *MongoRepository) Create(ctx context.Context, acc *models.Account) (*models.Account, error) {
	id, err := r.nextID(ctx)
	if err != nil {
		return nil, err
	}

	doc := documentFromAccount(acc)
	doc.ID = id
	doc.Version = 1

	if _, err := r.accounts.InsertOne(ctx, doc); err != nil {
		return nil, translateMongoError(err)
	}

	return accountFromDocument(doc)
}

func (r *MongoRepository) FindByID(ctx context.Context, id int64) (*models.Account, error) {
	doc, err := r.findOne(ctx, bson.M{"_id": id})
	if err != nil {
		return nil, err
	}
	return accountFromDocument(doc)
}

func (r *MongoRepository) FindByUsername(ctx context.Context, username string) (*models.Account, error) {
	doc, err := r.findOne(ctx, bson.M{"username": username})
	if err != nil {
		return nil, err
	}
	return accountFromDocument(doc)
}

func (r *MongoRepository) findOne(ctx context.Context, filter bson.M) (accountDocument, error) {
	var doc accountDocument
	if err := r.accounts.FindOne(ctx, filter).Decode(&doc); err != nil {
		return accountDocument{}, translateMongoError(err)
	}
	return doc, nil
}

func (r *MongoRepository) ExistsByUsername(ctx context.Context, username string) (bool, error) {
	n, err := r.accounts.CountDocuments(ctx, bson.M{"username": username}, options.Count().SetLimit(1))
	if err != nil {
		return false, translateMongoError(err)
	}
	return n > 0, nil
}

func (r *MongoRepository) FindAll(ctx context.Context) ([]*models.Account, error) {
	cur, err := r.accounts.Find(ctx, bson.D{}, options.Find().SetSort(bson.D{{Key: "_id", Value: 1}}))
	if err != nil {
		return nil, translateMongoError(err)
	}

	var docs []accountDocument
	if err := cur.All(ctx, &docs); err != nil {
		return nil, translateMongoError(err)
	}

	result := make([]*models.Account, 0, len(docs))
	for _, doc := range docs {
		acc, err := accountFromDocument(doc)
		if err != nil {
			return nil, err
		}
		result = append(result, acc)
	}
	return result, nil
}

// Update reads the document, applies fn and replaces it only if nobody else
// bumped the version in between, retrying a few times on conflict.
func (r *MongoRepository) Update(ctx context.Context, id int64, fn UpdateFunc) (*models.Account, error) {
	for attempt := 0; attempt < maxUpdateAttempts; attempt++ {
		doc, err := r.findOne(ctx, bson.M{"_id": id})
		if err != nil {
			return nil, err
		}

		acc, err := accountFromDocument(doc)
		if err != nil {
			return nil, err
		}
		if err := fn(acc); err != nil {
			return nil, err
		}

		next := documentFromAccount(acc)
		next.ID = id
		next.Password = doc.Password
		next.CreationDate = doc.CreationDate
		next.Token = doc.Token
		next.Version = doc.Version + 1

		res, err := r.accounts.ReplaceOne(ctx, bson.M{"_id": id, "version": doc.Version}, next)
		if err != nil {
			return nil, translateMongoError(err)
		}
		if res.MatchedCount == 1 {
			return accountFromDocument(next)
		}
	}

	return nil, fmt.Errorf("db error: account %d: %w", id, errVersionConflict)
}

// Flush is a no-op: every write is acknowledged with a journaled majority
// write concern.
func (r *MongoRepository) Flush(ctx context.Context) error {
	return nil
}

func (r *MongoRepository) Ping(ctx context.Context) error {
	return r.client.Ping(ctx, readpref.Primary())
}

func (r *MongoRepository) Close() error {
	return r.client.Disconnect(context.Background())
}

func translateMongoError(err error) error {
	switch {
	case errors.Is(err, mongo.ErrNoDocuments):
		return common.ErrorNotFound
	case mongo.IsDuplicateKeyError(err):
		return common.ErrDuplicateUsername
	default:
		return fmt.Errorf("db error: %w", err)
	}
}
