package models

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"regexp"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type kvDocument struct {
	Key   string   `bson:"_id"`
	Value bson.Raw `bson:"value"`
}

func (mdb *MongodbRepo) GetCollection(ctx context.Context, dbName, colName string) (*mongo.Collection, error) {
	if mdb.mongodbClient == nil {
		return nil, fmt.Errorf("mongodb client is not initialized")
	}
	return mdb.mongodbClient.Database(dbName).Collection(colName), nil
}

func (mdb *MongodbRepo) Get(ctx context.Context, key string) (json.RawMessage, error) {
	col, err := mdb.GetCollection(ctx, mdb.dbName, KVColName)
	if err != nil {
		return nil, fmt.Errorf("error getting collection: %w", err)
	}

	var doc kvDocument
	err = col.FindOne(ctx, bson.M{"_id": key}).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrKeyNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("error finding key %s: %w", key, err)
	}
	return documentToJSON(doc.Value)
}

func (mdb *MongodbRepo) Set(ctx context.Context, key string, value json.RawMessage) error {
	col, err := mdb.GetCollection(ctx, mdb.dbName, KVColName)
	if err != nil {
		return fmt.Errorf("error getting collection: %w", err)
	}

	var doc bson.D
	if err := bson.UnmarshalExtJSON(value, false, &doc); err != nil {
		return fmt.Errorf("error converting value for key %s: %w", key, err)
	}

	opts := options.Replace().SetUpsert(true)
	_, err = col.ReplaceOne(ctx, bson.M{"_id": key}, bson.M{"_id": key, "value": doc}, opts)
	if err != nil {
		return fmt.Errorf("error upserting key %s: %w", key, err)
	}
	return nil
}

func (mdb *MongodbRepo) GetByPrefix(ctx context.Context, prefix string) ([]json.RawMessage, error) {
	col, err := mdb.GetCollection(ctx, mdb.dbName, KVColName)
	if err != nil {
		return nil, fmt.Errorf("error getting collection: %w", err)
	}

	filter := bson.M{"_id": bson.M{"$regex": "^" + regexp.QuoteMeta(prefix)}}
	opts := options.Find().SetSort(bson.D{{Key: "_id", Value: 1}})
	cursor, err := col.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("error scanning prefix %s: %w", prefix, err)
	}
	defer cursor.Close(ctx)

	var values []json.RawMessage
	for cursor.Next(ctx) {
		var doc kvDocument
		if err := cursor.Decode(&doc); err != nil {
			return nil, fmt.Errorf("error decoding document: %w", err)
		}
		v, err := documentToJSON(doc.Value)
		if err != nil {
			return nil, err
		}
		values = append(values, v)
	}
	if err := cursor.Err(); err != nil {
		return nil, fmt.Errorf("cursor error: %w", err)
	}
	return values, nil
}

func documentToJSON(raw bson.Raw) (json.RawMessage, error) {
	out, err := bson.MarshalExtJSON(raw, false, false)
	if err != nil {
		return nil, fmt.Errorf("error converting document to JSON: %w", err)
	}
	return out, nil
}
