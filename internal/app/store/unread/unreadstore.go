// internal/app/store/unread/unreadstore.go
// Package unreadstore persists per-user unread-id sets as one document per
// (user, resource). All mutations are atomic single-document updates
// ($addToSet / $pull / upsert), so concurrent adders and readers never
// corrupt a set and every operation is idempotent.
package unreadstore

import (
	"context"
	"time"

	"github.com/dalemusser/teamline/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type Store struct {
	comments *mongo.Collection
	messages *mongo.Collection
}

func New(db *mongo.Database) *Store {
	return &Store{
		comments: db.Collection("unread_comments"),
		messages: db.Collection("unread_messages"),
	}
}

// presentIDs returns the requested ids that appear in the stored set,
// preserving stored order.
func presentIDs(stored, requested []primitive.ObjectID) []primitive.ObjectID {
	want := make(map[primitive.ObjectID]struct{}, len(requested))
	for _, id := range requested {
		want[id] = struct{}{}
	}
	var out []primitive.ObjectID
	for _, id := range stored {
		if _, ok := want[id]; ok {
			out = append(out, id)
		}
	}
	return out
}

/* ── comments ───────────────────────────────────────────────────────── */

// AddComment marks commentID unread for each user (the actor is excluded
// by the caller). Upserts the per-(user, discussion) document lazily.
func (s *Store) AddComment(ctx context.Context, userIDs []primitive.ObjectID, discussionID, teamID, commentID primitive.ObjectID) error {
	now := time.Now().UTC()
	for _, uid := range userIDs {
		_, err := s.comments.UpdateOne(ctx,
			bson.M{"user_id": uid, "discussion_id": discussionID},
			bson.M{
				"$addToSet":    bson.M{"comment_ids": commentID},
				"$set":         bson.M{"updated_at": now},
				"$setOnInsert": bson.M{"team_id": teamID},
			},
			options.Update().SetUpsert(true))
		if err != nil {
			return err
		}
	}
	return nil
}

// RemoveComments pulls ids from one user's set for a discussion (read
// acknowledgment) and returns the ids that were actually present before
// the pull. Removing absent ids is a no-op returning nil.
func (s *Store) RemoveComments(ctx context.Context, userID, discussionID primitive.ObjectID, commentIDs []primitive.ObjectID) ([]primitive.ObjectID, error) {
	var prev models.UnreadComments
	err := s.comments.FindOneAndUpdate(ctx,
		bson.M{"user_id": userID, "discussion_id": discussionID},
		bson.M{
			"$pull": bson.M{"comment_ids": bson.M{"$in": commentIDs}},
			"$set":  bson.M{"updated_at": time.Now().UTC()},
		},
		options.FindOneAndUpdate().SetReturnDocument(options.Before)).Decode(&prev)
	if err == mongo.ErrNoDocuments {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return presentIDs(prev.CommentIDs, commentIDs), nil
}

// RemoveCommentsForAll pulls the ids from every user's set referencing the
// discussion, so deleted comments never dangle in any unread set.
func (s *Store) RemoveCommentsForAll(ctx context.Context, discussionID primitive.ObjectID, commentIDs []primitive.ObjectID) error {
	_, err := s.comments.UpdateMany(ctx,
		bson.M{"discussion_id": discussionID},
		bson.M{
			"$pull": bson.M{"comment_ids": bson.M{"$in": commentIDs}},
			"$set":  bson.M{"updated_at": time.Now().UTC()},
		})
	return err
}

// DeleteByDiscussion drops every unread-comment document of a discussion.
func (s *Store) DeleteByDiscussion(ctx context.Context, discussionID primitive.ObjectID) error {
	_, err := s.comments.DeleteMany(ctx, bson.M{"discussion_id": discussionID})
	return err
}

// UnreadCommentIDs returns the user's unread set for a discussion.
func (s *Store) UnreadCommentIDs(ctx context.Context, userID, discussionID primitive.ObjectID) ([]primitive.ObjectID, error) {
	var doc models.UnreadComments
	err := s.comments.FindOne(ctx, bson.M{"user_id": userID, "discussion_id": discussionID}).Decode(&doc)
	if err == mongo.ErrNoDocuments {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return doc.CommentIDs, nil
}

// UsersWithUnreadComments returns the user ids whose sets reference any of
// the given comment ids.
func (s *Store) UsersWithUnreadComments(ctx context.Context, discussionID primitive.ObjectID, commentIDs []primitive.ObjectID) ([]primitive.ObjectID, error) {
	cur, err := s.comments.Find(ctx, bson.M{
		"discussion_id": discussionID,
		"comment_ids":   bson.M{"$in": commentIDs},
	})
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var out []primitive.ObjectID
	for cur.Next(ctx) {
		var doc models.UnreadComments
		if err := cur.Decode(&doc); err != nil {
			return nil, err
		}
		out = append(out, doc.UserID)
	}
	return out, cur.Err()
}

/* ── messages ───────────────────────────────────────────────────────── */

// AddMessage marks messageID unread of the given kind for each user.
func (s *Store) AddMessage(ctx context.Context, userIDs []primitive.ObjectID, chatID, teamID, messageID primitive.ObjectID, kind models.UnreadKind) error {
	now := time.Now().UTC()
	for _, uid := range userIDs {
		_, err := s.messages.UpdateOne(ctx,
			bson.M{"user_id": uid, "chat_id": chatID, "kind": kind},
			bson.M{
				"$addToSet":    bson.M{"message_ids": messageID},
				"$set":         bson.M{"updated_at": now},
				"$setOnInsert": bson.M{"team_id": teamID},
			},
			options.Update().SetUpsert(true))
		if err != nil {
			return err
		}
	}
	return nil
}

// RemoveMessages pulls ids from one user's set of one kind and returns the
// ids that were actually present before the pull.
func (s *Store) RemoveMessages(ctx context.Context, userID, chatID primitive.ObjectID, kind models.UnreadKind, messageIDs []primitive.ObjectID) ([]primitive.ObjectID, error) {
	var prev models.UnreadMessages
	err := s.messages.FindOneAndUpdate(ctx,
		bson.M{"user_id": userID, "chat_id": chatID, "kind": kind},
		bson.M{
			"$pull": bson.M{"message_ids": bson.M{"$in": messageIDs}},
			"$set":  bson.M{"updated_at": time.Now().UTC()},
		},
		options.FindOneAndUpdate().SetReturnDocument(options.Before)).Decode(&prev)
	if err == mongo.ErrNoDocuments {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return presentIDs(prev.MessageIDs, messageIDs), nil
}

// RemoveMessagesForAll pulls the ids from every set (both kinds) that
// references the chat. Used on message/thread delete.
func (s *Store) RemoveMessagesForAll(ctx context.Context, chatID primitive.ObjectID, messageIDs []primitive.ObjectID) error {
	_, err := s.messages.UpdateMany(ctx,
		bson.M{"chat_id": chatID},
		bson.M{
			"$pull": bson.M{"message_ids": bson.M{"$in": messageIDs}},
			"$set":  bson.M{"updated_at": time.Now().UTC()},
		})
	return err
}

// DeleteByChat drops every unread-message document of a chat.
func (s *Store) DeleteByChat(ctx context.Context, chatID primitive.ObjectID) error {
	_, err := s.messages.DeleteMany(ctx, bson.M{"chat_id": chatID})
	return err
}

// UnreadMessageIDs returns the user's unread set of one kind for a chat.
func (s *Store) UnreadMessageIDs(ctx context.Context, userID, chatID primitive.ObjectID, kind models.UnreadKind) ([]primitive.ObjectID, error) {
	var doc models.UnreadMessages
	err := s.messages.FindOne(ctx, bson.M{"user_id": userID, "chat_id": chatID, "kind": kind}).Decode(&doc)
	if err == mongo.ErrNoDocuments {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return doc.MessageIDs, nil
}

// UsersWithUnreadMessages returns the user ids whose sets of any kind
// reference the given message ids.
func (s *Store) UsersWithUnreadMessages(ctx context.Context, chatID primitive.ObjectID, messageIDs []primitive.ObjectID) ([]primitive.ObjectID, error) {
	cur, err := s.messages.Find(ctx, bson.M{
		"chat_id":     chatID,
		"message_ids": bson.M{"$in": messageIDs},
	})
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	seen := make(map[primitive.ObjectID]struct{})
	var out []primitive.ObjectID
	for cur.Next(ctx) {
		var doc models.UnreadMessages
		if err := cur.Decode(&doc); err != nil {
			return nil, err
		}
		if _, dup := seen[doc.UserID]; dup {
			continue
		}
		seen[doc.UserID] = struct{}{}
		out = append(out, doc.UserID)
	}
	return out, cur.Err()
}
