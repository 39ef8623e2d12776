package infrastructure

import (
	"errors"

	"go.mongodb.org/mongo-driver/mongo"
)

// MockDbAdapter store status double for the api unit tests
type MockDbAdapter struct {
	PingError bool
}

func NewMockDbAdapter() *MockDbAdapter {
	return &MockDbAdapter{
		PingError: false,
	}
}

func (c *MockDbAdapter) EnablePingError() {
	c.PingError = true
}

func (c *MockDbAdapter) DisablePingError() {
	c.PingError = false
}

func (c *MockDbAdapter) Close() error {
	return nil
}

func (c *MockDbAdapter) Ping() error {
	if c.PingError {
		return errors.New("Mock Ping Error")
	}
	return nil
}

func (c *MockDbAdapter) PingOK() bool {
	return !c.PingError
}

func (c *MockDbAdapter) Collection(collectionName string, databaseName ...string) *mongo.Collection {
	return nil
}

func (c *MockDbAdapter) WaitUntilStarted() {}
func (c *MockDbAdapter) Start()            {}
