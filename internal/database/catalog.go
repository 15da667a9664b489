package repository

import (
	"context"
	"regexp"
	"time"

	"github.com/Kultup/helpDesk-sub006/entity"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo/options"
)

func (m *MongoDB) GetActiveCities(ctx context.Context) ([]entity.City, error) {
	connection, err := m.connect()
	if err != nil {
		return nil, err
	}
	defer m.disconnect(connection)

	collection := connection.Database(m.database).Collection(citiesCollection)

	filter := bson.D{{Key: "active", Value: true}}
	opts := options.Find().SetSort(bson.D{{Key: "name", Value: 1}})

	cursor, err := collection.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}

	var cities []entity.City
	if err = cursor.All(ctx, &cities); err != nil {
		return nil, err
	}

	return cities, nil
}

func (m *MongoDB) GetActiveInstitutions(ctx context.Context, cityID string) ([]entity.Institution, error) {
	connection, err := m.connect()
	if err != nil {
		return nil, err
	}
	defer m.disconnect(connection)

	collection := connection.Database(m.database).Collection(institutionsCollection)

	filter := bson.D{
		{Key: "city_id", Value: cityID},
		{Key: "active", Value: true},
	}
	opts := options.Find().SetSort(bson.D{{Key: "name", Value: 1}})

	cursor, err := collection.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}

	var institutions []entity.Institution
	if err = cursor.All(ctx, &institutions); err != nil {
		return nil, err
	}

	return institutions, nil
}

// GetPublicPositions returns the selectable position catalog. A non-empty
// institutionID narrows the list to that institution's positions.
func (m *MongoDB) GetPublicPositions(ctx context.Context, institutionID string) ([]entity.Position, error) {
	connection, err := m.connect()
	if err != nil {
		return nil, err
	}
	defer m.disconnect(connection)

	collection := connection.Database(m.database).Collection(positionsCollection)

	filter := bson.D{
		{Key: "active", Value: true},
		{Key: "public", Value: true},
	}
	if institutionID != "" {
		filter = append(filter, bson.E{Key: "institution_id", Value: institutionID})
	}
	opts := options.Find().SetSort(bson.D{{Key: "title", Value: 1}})

	cursor, err := collection.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}

	var positions []entity.Position
	if err = cursor.All(ctx, &positions); err != nil {
		return nil, err
	}

	return positions, nil
}

// FindPositionByTitle matches the whole title case-insensitively, so an
// approved request never duplicates an existing catalog entry.
func (m *MongoDB) FindPositionByTitle(ctx context.Context, title string) (*entity.Position, error) {
	connection, err := m.connect()
	if err != nil {
		return nil, err
	}
	defer m.disconnect(connection)

	collection := connection.Database(m.database).Collection(positionsCollection)

	filter := bson.D{{Key: "title", Value: primitive.Regex{
		Pattern: "^" + regexp.QuoteMeta(title) + "$",
		Options: "i",
	}}}

	var position entity.Position
	err = collection.FindOne(ctx, filter).Decode(&position)
	if err != nil {
		return nil, m.findError(err)
	}

	return &position, nil
}

func (m *MongoDB) InsertPosition(ctx context.Context, p *entity.Position) (string, error) {
	connection, err := m.connect()
	if err != nil {
		return "", err
	}
	defer m.disconnect(connection)

	collection := connection.Database(m.database).Collection(positionsCollection)

	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	if p.CreatedAt.IsZero() {
		p.CreatedAt = time.Now()
	}

	_, err = collection.InsertOne(ctx, p)
	if err != nil {
		return "", err
	}

	return p.ID, nil
}
