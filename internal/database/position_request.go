package repository

import (
	"context"
	"time"

	"github.com/Kultup/helpDesk-sub006/entity"

	"go.mongodb.org/mongo-driver/bson"
)

func (m *MongoDB) InsertPositionRequest(ctx context.Context, req *entity.PositionRequest) error {
	connection, err := m.connect()
	if err != nil {
		return err
	}
	defer m.disconnect(connection)

	collection := connection.Database(m.database).Collection(positionRequestsCollection)

	_, err = collection.InsertOne(ctx, req)
	return err
}

func (m *MongoDB) GetPositionRequest(ctx context.Context, id string) (*entity.PositionRequest, error) {
	connection, err := m.connect()
	if err != nil {
		return nil, err
	}
	defer m.disconnect(connection)

	collection := connection.Database(m.database).Collection(positionRequestsCollection)

	filter := bson.D{{Key: "_id", Value: id}}

	var req entity.PositionRequest
	err = collection.FindOne(ctx, filter).Decode(&req)
	if err != nil {
		return nil, m.findError(err)
	}

	return &req, nil
}

// FindPendingRequestByConversation enforces the one-pending-request
// rule per registration conversation.
func (m *MongoDB) FindPendingRequestByConversation(ctx context.Context, conversationID string) (*entity.PositionRequest, error) {
	connection, err := m.connect()
	if err != nil {
		return nil, err
	}
	defer m.disconnect(connection)

	collection := connection.Database(m.database).Collection(positionRequestsCollection)

	filter := bson.D{
		{Key: "linked_conversation", Value: conversationID},
		{Key: "status", Value: entity.RequestPending},
	}

	var req entity.PositionRequest
	err = collection.FindOne(ctx, filter).Decode(&req)
	if err != nil {
		return nil, m.findError(err)
	}

	return &req, nil
}

// ResolvePositionRequest flips the request from pending to the final
// status. The status guard in the filter makes concurrent resolutions
// race on a single document version; only the winner modifies it.
func (m *MongoDB) ResolvePositionRequest(ctx context.Context, id, adminID, status, reason string) (bool, error) {
	connection, err := m.connect()
	if err != nil {
		return false, err
	}
	defer m.disconnect(connection)

	collection := connection.Database(m.database).Collection(positionRequestsCollection)

	now := time.Now()

	filter := bson.D{
		{Key: "_id", Value: id},
		{Key: "status", Value: entity.RequestPending},
	}
	update := bson.D{
		{Key: "$set", Value: bson.D{
			{Key: "status", Value: status},
			{Key: "resolved_by_admin_id", Value: adminID},
			{Key: "resolved_at", Value: now},
			{Key: "rejection_reason", Value: reason},
		}},
	}

	result, err := collection.UpdateOne(ctx, filter, update)
	if err != nil {
		return false, err
	}

	return result.ModifiedCount == 1, nil
}

func (m *MongoDB) SetRequestCreatedPosition(ctx context.Context, id, positionID string) error {
	connection, err := m.connect()
	if err != nil {
		return err
	}
	defer m.disconnect(connection)

	collection := connection.Database(m.database).Collection(positionRequestsCollection)

	filter := bson.D{{Key: "_id", Value: id}}
	update := bson.D{{Key: "$set", Value: bson.D{{Key: "created_position_id", Value: positionID}}}}

	_, err = collection.UpdateOne(ctx, filter, update)
	return err
}
