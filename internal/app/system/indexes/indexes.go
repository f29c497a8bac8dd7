// internal/app/system/indexes/indexes.go
package indexes

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"
)

/*
EnsureAll is called at startup. Each collection's index set is reconciled
idempotently; problems are aggregated so startup can fail fast with all of
them visible at once.
*/
func EnsureAll(ctx context.Context, db *mongo.Database) error {
	var problems []string
	for _, spec := range specs() {
		if err := ensureIndexSet(ctx, db.Collection(spec.collection), spec.models); err != nil {
			problems = append(problems, spec.collection+": "+err.Error())
		}
	}
	if len(problems) > 0 {
		return errors.New(strings.Join(problems, "; "))
	}
	return nil
}

type collectionSpec struct {
	collection string
	models     []mongo.IndexModel
}

func idx(name string, unique bool, keys ...bson.E) mongo.IndexModel {
	opts := options.Index().SetName(name)
	if unique {
		opts.SetUnique(true)
	}
	return mongo.IndexModel{Keys: bson.D(keys), Options: opts}
}

func asc(field string) bson.E  { return bson.E{Key: field, Value: 1} }
func desc(field string) bson.E { return bson.E{Key: field, Value: -1} }

func specs() []collectionSpec {
	return []collectionSpec{
		{"students", []mongo.IndexModel{
			idx("uniq_students_account", true, asc("account")),
			idx("idx_students_group_account", false, asc("group"), asc("account")),
			idx("idx_students_fullnameci", false, asc("full_name_ci")),
		}},
		{"permissions", []mongo.IndexModel{
			idx("uniq_permissions_account", true, asc("student_account")),
			idx("idx_permissions_leader", false, asc("is_group_leader"), asc("student_account")),
			idx("idx_permissions_grades", false, asc("can_edit_grades"), asc("student_account")),
			idx("idx_permissions_attendance", false, asc("can_mark_attendance"), asc("student_account")),
		}},
		// One record per student per session day.
		{"attendance", []mongo.IndexModel{
			idx("uniq_attendance_account_date", true, asc("student_account"), asc("date")),
			idx("idx_attendance_date_account", false, asc("date"), asc("student_account")),
			idx("idx_attendance_date_present", false, asc("date"), asc("is_present")),
		}},
		{"grades", []mongo.IndexModel{
			idx("uniq_grades_account", true, asc("student_account")),
		}},
		{"staff_accounts", []mongo.IndexModel{
			idx("uniq_staff_email", true, asc("email")),
		}},
		{"audit_events", []mongo.IndexModel{
			idx("idx_audit_time", false, desc("timestamp")),
			idx("idx_audit_account_time", false, asc("account"), desc("timestamp")),
			idx("idx_audit_category_type_time", false, asc("category"), asc("event_type"), desc("timestamp")),
		}},
	}
}

type existingIndex struct {
	Name   string `bson:"name"`
	Key    bson.D `bson:"key"`
	Unique *bool  `bson:"unique,omitempty"`
}

func keySig(keys bson.D) string {
	parts := make([]string, 0, len(keys))
	for _, kv := range keys {
		parts = append(parts, fmt.Sprintf("%s:%v", kv.Key, kv.Value))
	}
	return strings.Join(parts, ", ")
}

func isUnique(b *bool) bool { return b != nil && *b }

// Best-effort duplicate-detector (works cross-vendors)
func isDuplicateKeyErr(err error) bool {
	if err == nil {
		return false
	}
	if mongo.IsDuplicateKeyError(err) {
		return true
	}
	s := err.Error()
	return strings.Contains(s, "E11000") || strings.Contains(strings.ToLower(s), "duplicate key")
}

func listExisting(ctx context.Context, coll *mongo.Collection) (map[string]existingIndex, error) {
	cur, err := coll.Indexes().List(ctx)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	existing := map[string]existingIndex{} // sig -> index
	for cur.Next(ctx) {
		var ix existingIndex
		if err := cur.Decode(&ix); err != nil {
			zap.L().Warn("failed to decode existing index",
				zap.String("collection", coll.Name()),
				zap.Error(err))
			continue
		}
		existing[keySig(ix.Key)] = ix
	}
	return existing, cur.Err()
}

// ensureIndexSet reconciles the desired indexes with what exists: matching
// keys and options are reused; a name or uniqueness mismatch is dropped and
// recreated; anything missing is created.
func ensureIndexSet(ctx context.Context, coll *mongo.Collection, models []mongo.IndexModel) error {
	existing, err := listExisting(ctx, coll)
	if err != nil {
		// A collection that does not exist yet has no indexes to reconcile.
		existing = map[string]existingIndex{}
	}

	var errs []string
	for _, m := range models {
		name := *m.Options.Name
		unique := isUnique(m.Options.Unique)
		sig := keySig(m.Keys.(bson.D))
		start := time.Now()

		if ex, ok := existing[sig]; ok {
			if ex.Name == name && isUnique(ex.Unique) == unique {
				zap.L().Debug("reusing existing index",
					zap.String("collection", coll.Name()),
					zap.String("name", ex.Name))
				continue
			}
			if _, err := coll.Indexes().DropOne(ctx, ex.Name); err != nil {
				errs = append(errs, fmt.Sprintf("%s(%s): drop failed: %v", coll.Name(), name, err))
				continue
			}
		}

		if _, err := coll.Indexes().CreateOne(ctx, m); err != nil {
			if unique && isDuplicateKeyErr(err) {
				errs = append(errs, fmt.Sprintf("%s(%s): cannot create unique index on %s (duplicates present)", coll.Name(), name, sig))
			} else {
				errs = append(errs, fmt.Sprintf("%s(%s): %v", coll.Name(), name, err))
			}
			continue
		}
		zap.L().Info("index ensured",
			zap.String("collection", coll.Name()),
			zap.String("name", name),
			zap.String("keys", sig),
			zap.Bool("unique", unique),
			zap.String("took", time.Since(start).String()))
	}

	if len(errs) > 0 {
		return errors.New(strings.Join(errs, "; "))
	}
	return nil
}
