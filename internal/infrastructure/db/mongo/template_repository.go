package mongo

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/recruitly/template-service/internal/core/domain"
	"github.com/recruitly/template-service/internal/core/ports"
)

const (
	collectionTemplates = "email_templates"

	indexUniqueName    = "uniq_name"
	indexUniqueDefault = "uniq_default_per_type"
	indexSelection     = "selection"
)

type templateDoc struct {
	ID             primitive.ObjectID `bson:"_id,omitempty"`
	Name           string             `bson:"name"`
	Type           string             `bson:"type"`
	Subject        string             `bson:"subject"`
	HTMLBody       string             `bson:"html_body"`
	TextBody       string             `bson:"text_body,omitempty"`
	Variables      []domain.Variable  `bson:"variables"`
	IsActive       bool               `bson:"is_active"`
	IsDefault      bool               `bson:"is_default"`
	CreatedBy      string             `bson:"created_by"`
	LastModifiedBy string             `bson:"last_modified_by"`
	Version        int                `bson:"version"`
	UsageCount     int64              `bson:"usage_count"`
	LastUsedAt     *time.Time         `bson:"last_used_at,omitempty"`
	CreatedAt      time.Time          `bson:"created_at"`
	UpdatedAt      time.Time          `bson:"updated_at"`
}

func (d *templateDoc) toDomain() *domain.Template {
	vars := d.Variables
	if vars == nil {
		vars = []domain.Variable{}
	}
	return &domain.Template{
		ID:             d.ID.Hex(),
		Name:           d.Name,
		Type:           domain.TemplateType(d.Type),
		Subject:        d.Subject,
		HTMLBody:       d.HTMLBody,
		TextBody:       d.TextBody,
		Variables:      vars,
		IsActive:       d.IsActive,
		IsDefault:      d.IsDefault,
		CreatedBy:      d.CreatedBy,
		LastModifiedBy: d.LastModifiedBy,
		Version:        d.Version,
		UsageCount:     d.UsageCount,
		LastUsedAt:     d.LastUsedAt,
		CreatedAt:      d.CreatedAt,
		UpdatedAt:      d.UpdatedAt,
	}
}

// TemplateRepository implements ports.TemplateRepository on MongoDB.
type TemplateRepository struct {
	client *mongo.Client
	col    *mongo.Collection
	log    zerolog.Logger

	// set once the server has refused a transaction (standalone mongod)
	noTxn atomic.Bool
}

func NewTemplateRepository(db *mongo.Database, log zerolog.Logger) *TemplateRepository {
	return &TemplateRepository{
		client: db.Client(),
		col:    db.Collection(collectionTemplates),
		log:    log,
	}
}

// errNoMatch is returned by buildFilter when an ID cannot match any document.
var errNoMatch = errors.New("filter matches nothing")

func buildFilter(f ports.TemplateFilter) (bson.M, error) {
	filter := bson.M{}
	idCond := bson.M{}
	if f.ID != "" {
		oid, err := primitive.ObjectIDFromHex(f.ID)
		if err != nil {
			return nil, errNoMatch
		}
		idCond["$eq"] = oid
	}
	if f.ExcludeID != "" {
		if oid, err := primitive.ObjectIDFromHex(f.ExcludeID); err == nil {
			idCond["$ne"] = oid
		}
	}
	if len(idCond) > 0 {
		filter["_id"] = idCond
	}
	if f.Name != "" {
		filter["name"] = f.Name
	}
	if f.Type != "" {
		filter["type"] = string(f.Type)
	}
	if f.IsActive != nil {
		filter["is_active"] = *f.IsActive
	}
	if f.IsDefault != nil {
		filter["is_default"] = *f.IsDefault
	}
	return filter, nil
}

func sortFor(s ports.TemplateSort) bson.D {
	if s == ports.SortSelection {
		return bson.D{{Key: "is_default", Value: -1}, {Key: "created_at", Value: -1}, {Key: "_id", Value: -1}}
	}
	return bson.D{{Key: "created_at", Value: -1}, {Key: "_id", Value: -1}}
}

func buildUpdate(p ports.TemplatePatch, now time.Time) bson.M {
	set := bson.M{"updated_at": now}
	unset := bson.M{}
	inc := bson.M{}

	if p.Name != nil {
		set["name"] = *p.Name
	}
	if p.Type != nil {
		set["type"] = string(*p.Type)
	}
	if p.Subject != nil {
		set["subject"] = *p.Subject
	}
	if p.HTMLBody != nil {
		set["html_body"] = *p.HTMLBody
	}
	if p.TextBody != nil {
		if *p.TextBody == "" {
			unset["text_body"] = ""
		} else {
			set["text_body"] = *p.TextBody
		}
	}
	if p.Variables != nil {
		vars := *p.Variables
		if vars == nil {
			vars = []domain.Variable{}
		}
		set["variables"] = vars
	}
	if p.IsActive != nil {
		set["is_active"] = *p.IsActive
	}
	if p.IsDefault != nil {
		set["is_default"] = *p.IsDefault
	}
	if p.LastModifiedBy != "" {
		set["last_modified_by"] = p.LastModifiedBy
	}
	if p.LastUsedAt != nil {
		set["last_used_at"] = p.LastUsedAt.UTC()
	}
	if p.IncVersion {
		inc["version"] = 1
	}
	if p.IncUsage {
		inc["usage_count"] = 1
	}

	update := bson.M{"$set": set}
	if len(unset) > 0 {
		update["$unset"] = unset
	}
	if len(inc) > 0 {
		update["$inc"] = inc
	}
	return update
}

// mapWriteError translates unique index violations into domain errors.
func mapWriteError(err error) error {
	if err == nil {
		return nil
	}
	if mongo.IsDuplicateKeyError(err) {
		if strings.Contains(err.Error(), indexUniqueDefault) {
			return domain.ErrDefaultConflict
		}
		return domain.ErrDuplicateName
	}
	return err
}

func (r *TemplateRepository) FindOne(ctx context.Context, f ports.TemplateFilter, opts ports.FindOptions) (*domain.Template, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	filter, err := buildFilter(f)
	if err != nil {
		return nil, domain.ErrTemplateNotFound
	}

	var doc templateDoc
	err = r.col.FindOne(ctx, filter, options.FindOne().SetSort(sortFor(opts.Sort))).Decode(&doc)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domain.ErrTemplateNotFound
		}
		return nil, fmt.Errorf("find template: %w", err)
	}
	return doc.toDomain(), nil
}

func (r *TemplateRepository) Find(ctx context.Context, f ports.TemplateFilter, opts ports.FindOptions) ([]*domain.Template, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	filter, err := buildFilter(f)
	if err != nil {
		return []*domain.Template{}, nil
	}

	findOpts := options.Find().SetSort(sortFor(opts.Sort))
	if opts.Skip > 0 {
		findOpts.SetSkip(opts.Skip)
	}
	if opts.Limit > 0 {
		findOpts.SetLimit(opts.Limit)
	}

	cur, err := r.col.Find(ctx, filter, findOpts)
	if err != nil {
		return nil, fmt.Errorf("find templates: %w", err)
	}
	defer cur.Close(ctx)

	var docs []templateDoc
	if err := cur.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("decode templates: %w", err)
	}

	out := make([]*domain.Template, 0, len(docs))
	for i := range docs {
		out = append(out, docs[i].toDomain())
	}
	return out, nil
}

func (r *TemplateRepository) Count(ctx context.Context, f ports.TemplateFilter) (int64, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	filter, err := buildFilter(f)
	if err != nil {
		return 0, nil
	}
	n, err := r.col.CountDocuments(ctx, filter)
	if err != nil {
		return 0, fmt.Errorf("count templates: %w", err)
	}
	return n, nil
}

func (r *TemplateRepository) Insert(ctx context.Context, tpl *domain.Template) (*domain.Template, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	now := time.Now().UTC().Truncate(time.Millisecond)
	doc := templateDoc{
		Name:           tpl.Name,
		Type:           string(tpl.Type),
		Subject:        tpl.Subject,
		HTMLBody:       tpl.HTMLBody,
		TextBody:       tpl.TextBody,
		Variables:      tpl.Variables,
		IsActive:       tpl.IsActive,
		IsDefault:      tpl.IsDefault,
		CreatedBy:      tpl.CreatedBy,
		LastModifiedBy: tpl.LastModifiedBy,
		Version:        tpl.Version,
		UsageCount:     tpl.UsageCount,
		LastUsedAt:     tpl.LastUsedAt,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	if doc.Variables == nil {
		doc.Variables = []domain.Variable{}
	}

	res, err := r.col.InsertOne(ctx, doc)
	if err != nil {
		if mapped := mapWriteError(err); mapped != err {
			return nil, mapped
		}
		return nil, fmt.Errorf("insert template: %w", err)
	}
	doc.ID = res.InsertedID.(primitive.ObjectID)
	return doc.toDomain(), nil
}

func (r *TemplateRepository) UpdateOne(ctx context.Context, f ports.TemplateFilter, p ports.TemplatePatch) (*domain.Template, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	filter, err := buildFilter(f)
	if err != nil {
		return nil, domain.ErrTemplateNotFound
	}

	opts := options.FindOneAndUpdate().
		SetReturnDocument(options.After).
		SetSort(sortFor(ports.SortNewest))

	var doc templateDoc
	err = r.col.FindOneAndUpdate(ctx, filter, buildUpdate(p, time.Now().UTC()), opts).Decode(&doc)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domain.ErrTemplateNotFound
		}
		if mapped := mapWriteError(err); mapped != err {
			return nil, mapped
		}
		return nil, fmt.Errorf("update template: %w", err)
	}
	return doc.toDomain(), nil
}

func (r *TemplateRepository) UpdateMany(ctx context.Context, f ports.TemplateFilter, p ports.TemplatePatch) (int64, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	filter, err := buildFilter(f)
	if err != nil {
		return 0, nil
	}

	res, err := r.col.UpdateMany(ctx, filter, buildUpdate(p, time.Now().UTC()))
	if err != nil {
		if mapped := mapWriteError(err); mapped != err {
			return 0, mapped
		}
		return 0, fmt.Errorf("update templates: %w", err)
	}
	return res.ModifiedCount, nil
}

func (r *TemplateRepository) DeleteOne(ctx context.Context, id string) error {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return domain.ErrTemplateNotFound
	}
	res, err := r.col.DeleteOne(ctx, bson.M{"_id": oid})
	if err != nil {
		return fmt.Errorf("delete template: %w", err)
	}
	if res.DeletedCount == 0 {
		return domain.ErrTemplateNotFound
	}
	return nil
}

// DisableTransactions makes WithinTransaction run fn as plain ordered writes
// from now on. Used at startup when the deployment is a standalone server.
func (r *TemplateRepository) DisableTransactions() {
	r.noTxn.Store(true)
}

// WithinTransaction runs fn in a session transaction. Standalone servers do
// not support transactions; after the first refusal fn runs as plain ordered
// writes and the partial unique index is what keeps defaults unique.
func (r *TemplateRepository) WithinTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	if r.noTxn.Load() {
		return fn(ctx)
	}

	sess, err := r.client.StartSession()
	if err != nil {
		return fmt.Errorf("start session: %w", err)
	}
	defer sess.EndSession(ctx)

	_, err = sess.WithTransaction(ctx, func(sc mongo.SessionContext) (interface{}, error) {
		return nil, fn(sc)
	})
	if err != nil && transactionsUnsupported(err) {
		r.noTxn.Store(true)
		r.log.Warn().Err(err).Msg("mongo transactions unavailable, falling back to ordered writes")
		return fn(ctx)
	}
	return err
}

func transactionsUnsupported(err error) bool {
	var cmdErr mongo.CommandError
	if errors.As(err, &cmdErr) && cmdErr.Code == 20 {
		return true
	}
	return strings.Contains(err.Error(), "Transaction numbers are only allowed")
}

// EnsureIndexes creates the indexes the repository relies on for uniqueness
// and selection.
func (r *TemplateRepository) EnsureIndexes(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	indexes := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "name", Value: 1}},
			Options: options.Index().SetName(indexUniqueName).SetUnique(true),
		},
		{
			Keys: bson.D{{Key: "type", Value: 1}},
			Options: options.Index().
				SetName(indexUniqueDefault).
				SetUnique(true).
				SetPartialFilterExpression(bson.M{"is_default": true}),
		},
		{
			Keys: bson.D{
				{Key: "type", Value: 1},
				{Key: "is_active", Value: 1},
				{Key: "is_default", Value: -1},
				{Key: "created_at", Value: -1},
			},
			Options: options.Index().SetName(indexSelection),
		},
	}

	_, err := r.col.Indexes().CreateMany(ctx, indexes)
	return err
}
