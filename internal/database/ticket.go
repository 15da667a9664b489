package repository

import (
	"context"

	"github.com/Kultup/helpDesk-sub006/entity"

	"go.mongodb.org/mongo-driver/bson"
)

// GetActiveTicketsWithSLA returns the deadline-watch working set.
func (m *MongoDB) GetActiveTicketsWithSLA(ctx context.Context) ([]entity.Ticket, error) {
	connection, err := m.connect()
	if err != nil {
		return nil, err
	}
	defer m.disconnect(connection)

	collection := connection.Database(m.database).Collection(ticketsCollection)

	filter := bson.D{
		{Key: "status", Value: entity.TicketInProgress},
		{Key: "sla", Value: bson.D{{Key: "$ne", Value: nil}}},
	}

	cursor, err := collection.Find(ctx, filter)
	if err != nil {
		return nil, err
	}

	var tickets []entity.Ticket
	if err = cursor.All(ctx, &tickets); err != nil {
		return nil, err
	}

	return tickets, nil
}

// MarkSLAWarned records a dispatched warning threshold. $addToSet only
// modifies the document when the threshold is new, so ModifiedCount
// tells whether this call won the right to send the warning.
func (m *MongoDB) MarkSLAWarned(ctx context.Context, ticketID string, threshold float64) (bool, error) {
	connection, err := m.connect()
	if err != nil {
		return false, err
	}
	defer m.disconnect(connection)

	collection := connection.Database(m.database).Collection(ticketsCollection)

	filter := bson.D{{Key: "_id", Value: ticketID}}
	update := bson.D{
		{Key: "$addToSet", Value: bson.D{{Key: "sla.warned_thresholds", Value: threshold}}},
	}

	result, err := collection.UpdateOne(ctx, filter, update)
	if err != nil {
		return false, err
	}

	return result.ModifiedCount == 1, nil
}

// SetTicketRating stores the creator's 1-5 score for a closed ticket.
func (m *MongoDB) SetTicketRating(ctx context.Context, ticketID string, rating int) error {
	connection, err := m.connect()
	if err != nil {
		return err
	}
	defer m.disconnect(connection)

	collection := connection.Database(m.database).Collection(ticketsCollection)

	filter := bson.D{{Key: "_id", Value: ticketID}}
	update := bson.D{{Key: "$set", Value: bson.D{{Key: "rating", Value: rating}}}}

	_, err = collection.UpdateOne(ctx, filter, update)
	return err
}
