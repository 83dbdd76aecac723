// internal/app/system/indexes/indexes.go
package indexes

import (
	"context"
	"errors"
	"strings"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

/*
EnsureAll is called at startup. Each ensure* function is idempotent.
Errors are aggregated so any problem is visible and startup can fail fast.
*/
func EnsureAll(ctx context.Context, db *mongo.Database) error {
	var problems []string

	if err := ensureUsers(ctx, db); err != nil {
		problems = append(problems, "users: "+err.Error())
	}
	if err := ensureTeams(ctx, db); err != nil {
		problems = append(problems, "teams: "+err.Error())
	}
	if err := ensureTeamMembers(ctx, db); err != nil {
		problems = append(problems, "team_members: "+err.Error())
	}
	if err := ensureDiscussions(ctx, db); err != nil {
		problems = append(problems, "discussions: "+err.Error())
	}
	if err := ensureComments(ctx, db); err != nil {
		problems = append(problems, "comments: "+err.Error())
	}
	if err := ensureChats(ctx, db); err != nil {
		problems = append(problems, "chats: "+err.Error())
	}
	if err := ensureMessages(ctx, db); err != nil {
		problems = append(problems, "messages: "+err.Error())
	}
	if err := ensureUnread(ctx, db); err != nil {
		problems = append(problems, "unread: "+err.Error())
	}
	if err := ensurePresence(ctx, db); err != nil {
		problems = append(problems, "presence: "+err.Error())
	}

	if len(problems) > 0 {
		return errors.New(strings.Join(problems, "; "))
	}
	return nil
}

func ensureUsers(ctx context.Context, db *mongo.Database) error {
	_, err := db.Collection("users").Indexes().CreateMany(ctx, []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "email_ci", Value: 1}},
			Options: options.Index().SetName("uniq_email_ci").SetUnique(true),
		},
	})
	return err
}

func ensureTeams(ctx context.Context, db *mongo.Database) error {
	_, err := db.Collection("teams").Indexes().CreateMany(ctx, []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "leader_id", Value: 1}},
			Options: options.Index().SetName("by_leader"),
		},
	})
	return err
}

func ensureTeamMembers(ctx context.Context, db *mongo.Database) error {
	_, err := db.Collection("team_members").Indexes().CreateMany(ctx, []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "team_id", Value: 1}, {Key: "user_id", Value: 1}},
			Options: options.Index().SetName("uniq_team_user").SetUnique(true),
		},
		{
			Keys:    bson.D{{Key: "user_id", Value: 1}, {Key: "status", Value: 1}},
			Options: options.Index().SetName("by_user_status"),
		},
	})
	return err
}

func ensureDiscussions(ctx context.Context, db *mongo.Database) error {
	_, err := db.Collection("discussions").Indexes().CreateMany(ctx, []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "team_id", Value: 1}, {Key: "last_updated_at", Value: -1}},
			Options: options.Index().SetName("by_team_recent"),
		},
	})
	return err
}

func ensureComments(ctx context.Context, db *mongo.Database) error {
	_, err := db.Collection("comments").Indexes().CreateMany(ctx, []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "discussion_id", Value: 1}, {Key: "created_at", Value: 1}},
			Options: options.Index().SetName("by_discussion_time"),
		},
	})
	return err
}

func ensureChats(ctx context.Context, db *mongo.Database) error {
	_, err := db.Collection("chats").Indexes().CreateMany(ctx, []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "team_id", Value: 1}},
			Options: options.Index().SetName("by_team"),
		},
	})
	return err
}

func ensureMessages(ctx context.Context, db *mongo.Database) error {
	_, err := db.Collection("messages").Indexes().CreateMany(ctx, []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "chat_id", Value: 1}, {Key: "created_at", Value: 1}},
			Options: options.Index().SetName("by_chat_time"),
		},
		{
			Keys:    bson.D{{Key: "parent_id", Value: 1}},
			Options: options.Index().SetName("by_parent").SetSparse(true),
		},
	})
	return err
}

func ensureUnread(ctx context.Context, db *mongo.Database) error {
	_, err := db.Collection("unread_comments").Indexes().CreateMany(ctx, []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "user_id", Value: 1}, {Key: "discussion_id", Value: 1}},
			Options: options.Index().SetName("uniq_user_discussion").SetUnique(true),
		},
		{
			Keys:    bson.D{{Key: "discussion_id", Value: 1}},
			Options: options.Index().SetName("by_discussion"),
		},
	})
	if err != nil {
		return err
	}
	_, err = db.Collection("unread_messages").Indexes().CreateMany(ctx, []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "user_id", Value: 1}, {Key: "chat_id", Value: 1}, {Key: "kind", Value: 1}},
			Options: options.Index().SetName("uniq_user_chat_kind").SetUnique(true),
		},
		{
			Keys:    bson.D{{Key: "chat_id", Value: 1}},
			Options: options.Index().SetName("by_chat"),
		},
	})
	return err
}

func ensurePresence(ctx context.Context, db *mongo.Database) error {
	_, err := db.Collection("presence").Indexes().CreateMany(ctx, []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "user_id", Value: 1}, {Key: "team_id", Value: 1}},
			Options: options.Index().SetName("uniq_user_team").SetUnique(true),
		},
		{
			Keys:    bson.D{{Key: "team_id", Value: 1}, {Key: "online", Value: 1}},
			Options: options.Index().SetName("by_team_online"),
		},
	})
	return err
}
