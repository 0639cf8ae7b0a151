package seed

import (
	"bytes"
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"

	"github.com/bmcgrane302/properview/internal/auth"
	"github.com/bmcgrane302/properview/internal/db"
	"github.com/bmcgrane302/properview/internal/models"
	"github.com/bmcgrane302/properview/internal/utils"
)

func TestSampleProperties(t *testing.T) {
	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	properties := SampleProperties(now)
	require.Len(t, properties, 9)

	perAgent := map[string]int{}
	seen := map[string]bool{}
	for i, p := range properties {
		assert.True(t, p.Status.Valid(), p.Title)
		assert.False(t, p.ID.IsZero())
		assert.False(t, seen[p.ID.Hex()], "duplicate id")
		seen[p.ID.Hex()] = true
		perAgent[p.AgentID]++
		if i > 0 {
			assert.True(t, p.CreatedAt.Before(properties[i-1].CreatedAt))
		}
	}
	assert.Equal(t, map[string]int{"agent1": 3, "agent2": 3, "agent3": 3}, perAgent)
}

func TestSampleInquiries(t *testing.T) {
	now := time.Now().UTC()
	properties := SampleProperties(now)
	inquiries, err := SampleInquiries(properties, now)
	require.NoError(t, err)
	require.Len(t, inquiries, 5)

	wantIndexes := []int{0, 1, 3, 4, 6}
	for i, inq := range inquiries {
		assert.Equal(t, properties[wantIndexes[i]].ID, inq.PropertyID)
		require.NotNil(t, inq.Phone)
	}

	_, err = SampleInquiries(properties[:2], now)
	assert.Error(t, err)
}

func TestSummaryPipeline(t *testing.T) {
	pipeline := summaryPipeline()
	require.Len(t, pipeline, 2)
	assert.Equal(t, "$group", pipeline[0][0].Key)
	group := pipeline[0][0].Value.(bson.D)
	assert.Equal(t, "$agentId", group[0].Value)
	assert.Equal(t, "$sort", pipeline[1][0].Key)
}

func TestPrintSummary(t *testing.T) {
	var buf bytes.Buffer
	PrintSummary(&buf, &Result{
		Properties: 9,
		Inquiries:  5,
		Agents:     []AgentSummary{{AgentID: "agent1", Count: 3, Active: 2, Pending: 1}},
	}, auth.DefaultDemoAccounts())

	out := buf.String()
	assert.Contains(t, out, "agent1: 3 properties (2 active, 1 pending, 0 sold)")
	assert.Contains(t, out, "agent@properview.com (John Smith - Senior Agent)")
	assert.Contains(t, out, "Password for all: demo123")
}

func TestRun(t *testing.T) {
	database := utils.SetupTestDB(t, "properview_test_seed", db.PropertiesCollection, db.InquiriesCollection)
	ctx := context.Background()

	// Run twice to check it replaces rather than appends.
	_, err := Run(ctx, database)
	require.NoError(t, err)
	result, err := Run(ctx, database)
	require.NoError(t, err)

	assert.Equal(t, 9, result.Properties)
	assert.Equal(t, int64(5), result.Inquiries)
	assert.Equal(t, []AgentSummary{
		{AgentID: "agent1", Count: 3, Active: 2, Pending: 1, Sold: 0},
		{AgentID: "agent2", Count: 3, Active: 2, Pending: 0, Sold: 1},
		{AgentID: "agent3", Count: 3, Active: 2, Pending: 1, Sold: 0},
	}, result.Agents)

	count, err := database.Collection(db.PropertiesCollection).CountDocuments(ctx, bson.M{"status": models.PropertyStatusActive})
	require.NoError(t, err)
	assert.Equal(t, int64(6), count)
}
