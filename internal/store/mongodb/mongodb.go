// Package mongodb implements the store on MongoDB. Each time record is a single
// document holding its visits, so accumulation is one atomic $inc/$push upsert.
package mongodb

import (
	"context"
	"errors"

	"lessonpath-backend-go/internal/models"
	"lessonpath-backend-go/internal/store"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
)

const (
	usersCollection       = "users"
	allowlistCollection   = "allowlist"
	lessonsCollection     = "lessons"
	timeRecordsCollection = "time_records"
	settingsCollection    = "settings"
)

type Store struct {
	client *mongo.Client
	db     *mongo.Database
}

var _ store.Store = (*Store)(nil)

func New(client *mongo.Client, database string) *Store {
	return &Store{client: client, db: client.Database(database)}
}

// EnsureIndexes creates the unique keys the repositories rely on.
func (s *Store) EnsureIndexes(ctx context.Context) error {
	if _, err := s.db.Collection(usersCollection).Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "email", Value: 1}},
		Options: options.Index().SetUnique(true),
	}); err != nil {
		return err
	}
	if _, err := s.db.Collection(lessonsCollection).Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "order", Value: 1}, {Key: "created_at", Value: 1}},
	}); err != nil {
		return err
	}
	if _, err := s.db.Collection(timeRecordsCollection).Indexes().CreateMany(ctx, []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "user_id", Value: 1}, {Key: "lesson_id", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
		{
			Keys: bson.D{{Key: "last_visit", Value: -1}},
		},
	}); err != nil {
		return err
	}
	return nil
}

func (s *Store) Users() store.Users {
	return &usersRepo{coll: s.db.Collection(usersCollection)}
}

func (s *Store) Allowlist() store.Allowlist {
	return &allowlistRepo{coll: s.db.Collection(allowlistCollection)}
}

func (s *Store) Lessons() store.Lessons {
	return &lessonsRepo{coll: s.db.Collection(lessonsCollection)}
}

func (s *Store) TimeRecords() store.TimeRecords {
	return &timeRecordsRepo{coll: s.db.Collection(timeRecordsCollection)}
}

func (s *Store) Settings() store.Settings {
	return &settingsRepo{coll: s.db.Collection(settingsCollection)}
}

func (s *Store) Ping(ctx context.Context) error {
	return s.client.Ping(ctx, nil)
}

func (s *Store) Close() error {
	return s.client.Disconnect(context.Background())
}

func mapNotFound(err error) error {
	if errors.Is(err, mongo.ErrNoDocuments) {
		return store.ErrNotFound
	}
	return err
}

func byID(id string) bson.D {
	return bson.D{{Key: "_id", Value: id}}
}

type usersRepo struct {
	coll *mongo.Collection
}

func (r *usersRepo) CreateUser(ctx context.Context, u models.User) error {
	_, err := r.coll.InsertOne(ctx, u)
	if mongo.IsDuplicateKeyError(err) {
		return store.ErrAlreadyExists
	}
	return err
}

func (r *usersRepo) GetUserByID(ctx context.Context, id string) (models.User, error) {
	var u models.User
	err := r.coll.FindOne(ctx, byID(id)).Decode(&u)
	return u, mapNotFound(err)
}

func (r *usersRepo) GetUserByEmail(ctx context.Context, email string) (models.User, error) {
	var u models.User
	err := r.coll.FindOne(ctx, bson.D{{Key: "email", Value: email}}).Decode(&u)
	return u, mapNotFound(err)
}

func (r *usersRepo) ListUsers(ctx context.Context) ([]models.User, error) {
	cursor, err := r.coll.Find(ctx, bson.D{}, options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}}))
	if err != nil {
		return nil, err
	}
	users := []models.User{}
	if err := cursor.All(ctx, &users); err != nil {
		return nil, err
	}
	return users, nil
}

func (r *usersRepo) UpdatePasswordHash(ctx context.Context, userID, hash string) error {
	res, err := r.coll.UpdateOne(ctx, byID(userID), bson.D{{Key: "$set", Value: bson.D{{Key: "password_hash", Value: hash}}}})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return store.ErrNotFound
	}
	return nil
}

func (r *usersRepo) DeleteUser(ctx context.Context, userID string) error {
	res, err := r.coll.DeleteOne(ctx, byID(userID))
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return store.ErrNotFound
	}
	return nil
}

type allowlistRepo struct {
	coll *mongo.Collection
}

func (r *allowlistRepo) UpsertEntries(ctx context.Context, entries []models.AllowlistEntry) error {
	if len(entries) == 0 {
		return nil
	}
	writes := make([]mongo.WriteModel, 0, len(entries))
	for _, e := range entries {
		writes = append(writes, mongo.NewUpdateOneModel().
			SetFilter(byID(e.Email)).
			SetUpdate(bson.D{
				{Key: "$set", Value: bson.D{
					{Key: "name", Value: e.Name},
					{Key: "year", Value: e.Year},
					{Key: "semester", Value: e.Semester},
					{Key: "course_code", Value: e.CourseCode},
				}},
				{Key: "$setOnInsert", Value: bson.D{{Key: "date_added", Value: e.DateAdded}}},
			}).
			SetUpsert(true))
	}
	_, err := r.coll.BulkWrite(ctx, writes)
	return err
}

func (r *allowlistRepo) GetEntry(ctx context.Context, email string) (models.AllowlistEntry, error) {
	var e models.AllowlistEntry
	err := r.coll.FindOne(ctx, byID(email)).Decode(&e)
	return e, mapNotFound(err)
}

func (r *allowlistRepo) ListEntries(ctx context.Context) ([]models.AllowlistEntry, error) {
	cursor, err := r.coll.Find(ctx, bson.D{}, options.Find().SetSort(bson.D{{Key: "_id", Value: 1}}))
	if err != nil {
		return nil, err
	}
	entries := []models.AllowlistEntry{}
	if err := cursor.All(ctx, &entries); err != nil {
		return nil, err
	}
	return entries, nil
}

type lessonsRepo struct {
	coll *mongo.Collection
}

var catalogSort = bson.D{{Key: "order", Value: 1}, {Key: "created_at", Value: 1}, {Key: "_id", Value: 1}}

func (r *lessonsRepo) ListLessons(ctx context.Context) ([]models.Lesson, error) {
	cursor, err := r.coll.Find(ctx, bson.D{}, options.Find().SetSort(catalogSort))
	if err != nil {
		return nil, err
	}
	lessons := []models.Lesson{}
	if err := cursor.All(ctx, &lessons); err != nil {
		return nil, err
	}
	return lessons, nil
}

func (r *lessonsRepo) GetLesson(ctx context.Context, id string) (models.Lesson, error) {
	var l models.Lesson
	err := r.coll.FindOne(ctx, byID(id)).Decode(&l)
	return l, mapNotFound(err)
}

func (r *lessonsRepo) CreateLesson(ctx context.Context, l models.Lesson) (int, error) {
	var last models.Lesson
	err := r.coll.FindOne(ctx, bson.D{}, options.FindOne().SetSort(bson.D{{Key: "order", Value: -1}})).Decode(&last)
	switch {
	case err == nil:
		l.Order = last.Order + 1
	case errors.Is(err, mongo.ErrNoDocuments):
		l.Order = 0
	default:
		return 0, err
	}
	if _, err := r.coll.InsertOne(ctx, l); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return 0, store.ErrAlreadyExists
		}
		return 0, err
	}
	return l.Order, nil
}

func (r *lessonsRepo) UpdateLesson(ctx context.Context, id string, patch models.LessonPatch) error {
	set := bson.D{}
	if patch.Title != nil {
		set = append(set, bson.E{Key: "title", Value: *patch.Title})
	}
	if patch.Description != nil {
		set = append(set, bson.E{Key: "description", Value: *patch.Description})
	}
	if patch.Image != nil {
		set = append(set, bson.E{Key: "image", Value: *patch.Image})
	}
	if patch.Content != nil {
		set = append(set, bson.E{Key: "content", Value: *patch.Content})
	}
	if len(set) == 0 {
		count, err := r.coll.CountDocuments(ctx, byID(id))
		if err != nil {
			return err
		}
		if count == 0 {
			return store.ErrNotFound
		}
		return nil
	}
	res, err := r.coll.UpdateOne(ctx, byID(id), bson.D{{Key: "$set", Value: set}})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return store.ErrNotFound
	}
	return nil
}

func (r *lessonsRepo) DeleteLesson(ctx context.Context, id string) error {
	res, err := r.coll.DeleteOne(ctx, byID(id))
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return store.ErrNotFound
	}
	return nil
}

func (r *lessonsRepo) ApplyOrder(ctx context.Context, items []models.LessonOrder) error {
	if len(items) == 0 {
		return nil
	}
	ids := make([]string, 0, len(items))
	seen := map[string]bool{}
	for _, item := range items {
		if !seen[item.ID] {
			seen[item.ID] = true
			ids = append(ids, item.ID)
		}
	}
	count, err := r.coll.CountDocuments(ctx, bson.D{{Key: "_id", Value: bson.D{{Key: "$in", Value: ids}}}})
	if err != nil {
		return err
	}
	if count != int64(len(ids)) {
		return store.ErrNotFound
	}
	writes := make([]mongo.WriteModel, 0, len(items))
	for _, item := range items {
		writes = append(writes, mongo.NewUpdateOneModel().
			SetFilter(byID(item.ID)).
			SetUpdate(bson.D{{Key: "$set", Value: bson.D{{Key: "order", Value: item.Order}}}}))
	}
	_, err = r.coll.BulkWrite(ctx, writes)
	return err
}

type timeRecordsRepo struct {
	coll *mongo.Collection
}

func recordFilter(userID, lessonID string) bson.D {
	return bson.D{{Key: "user_id", Value: userID}, {Key: "lesson_id", Value: lessonID}}
}

func (r *timeRecordsRepo) AddVisit(ctx context.Context, userID, lessonID string, visit models.Visit) error {
	update := bson.D{
		{Key: "$inc", Value: bson.D{{Key: "duration", Value: visit.Duration}}},
		{Key: "$push", Value: bson.D{{Key: "visits", Value: visit}}},
		{Key: "$max", Value: bson.D{{Key: "last_visit", Value: visit.Timestamp}}},
	}
	opts := options.UpdateOne().SetUpsert(true)
	_, err := r.coll.UpdateOne(ctx, recordFilter(userID, lessonID), update, opts)
	if mongo.IsDuplicateKeyError(err) {
		// A concurrent first report won the upsert; the document exists now.
		_, err = r.coll.UpdateOne(ctx, recordFilter(userID, lessonID), update)
	}
	return err
}

func (r *timeRecordsRepo) GetRecord(ctx context.Context, userID, lessonID string) (models.TimeRecord, error) {
	var rec models.TimeRecord
	err := r.coll.FindOne(ctx, recordFilter(userID, lessonID)).Decode(&rec)
	return rec, mapNotFound(err)
}

func (r *timeRecordsRepo) ListByUser(ctx context.Context, userID string) ([]models.TimeRecord, error) {
	return r.find(ctx, bson.D{{Key: "user_id", Value: userID}})
}

func (r *timeRecordsRepo) ListAll(ctx context.Context) ([]models.TimeRecord, error) {
	return r.find(ctx, bson.D{})
}

func (r *timeRecordsRepo) find(ctx context.Context, filter bson.D) ([]models.TimeRecord, error) {
	cursor, err := r.coll.Find(ctx, filter, options.Find().SetSort(bson.D{{Key: "last_visit", Value: -1}}))
	if err != nil {
		return nil, err
	}
	records := []models.TimeRecord{}
	if err := cursor.All(ctx, &records); err != nil {
		return nil, err
	}
	return records, nil
}

type settingsRepo struct {
	coll *mongo.Collection
}

func (r *settingsRepo) GetSetting(ctx context.Context, key string) (models.Setting, error) {
	var s models.Setting
	err := r.coll.FindOne(ctx, byID(key)).Decode(&s)
	return s, mapNotFound(err)
}

func (r *settingsRepo) PutSetting(ctx context.Context, s models.Setting) error {
	_, err := r.coll.UpdateOne(ctx, byID(s.Key),
		bson.D{{Key: "$set", Value: bson.D{{Key: "value", Value: s.Value}}}},
		options.UpdateOne().SetUpsert(true))
	return err
}
