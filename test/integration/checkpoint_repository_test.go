package integration

import (
	"context"
	"log"
	"os"
	"testing"

	"github.com/joho/godotenv"
	"github.com/stretchr/testify/assert"

	"ai-docqa-be/internal/model"
	"ai-docqa-be/internal/repository/implementation"
	"ai-docqa-be/pkg/checkpoint"
	"ai-docqa-be/pkg/database"
	"ai-docqa-be/pkg/workflow"
)

func TestCheckpointRepositoryRoundTrip(t *testing.T) {
	// Load .env from root
	err := godotenv.Load("../../.env")
	if err != nil {
		log.Println("No .env file found, using system env")
	}

	dsn := os.Getenv("DB_CONNECTION_STRING")
	if dsn == "" {
		t.Skip("Skipping integration test: DB_CONNECTION_STRING not set")
	}

	gormDB, err := database.NewGormDBFromDSN(dsn)
	if err != nil {
		t.Fatalf("Failed to connect to DB: %v", err)
	}
	assert.NoError(t, gormDB.AutoMigrate(&model.Checkpoint{}))

	ctx := context.Background()
	repo := implementation.NewCheckpointRepository(gormDB)
	store := checkpoint.NewStore(repo, nil)

	threadID := "integration-thread"
	t.Cleanup(func() {
		_, _ = store.Clear(ctx, threadID)
	})

	st := workflow.NewState("user-1", "what is the refund policy?", []string{"billing"}, nil)
	st.Node = workflow.NodeEvaluateQuality
	st.RoutedCategory = "billing"
	st.AddStep("validate")
	st.AddStep("route_and_retrieve")

	first, err := store.Save(ctx, threadID, st)
	assert.NoError(t, err)

	st.Node = workflow.NodeGenerate
	st.AddStep("evaluate_quality")
	st.AddStep("dedup")
	second, err := store.Save(ctx, threadID, st)
	assert.NoError(t, err)

	t.Run("Get latest", func(t *testing.T) {
		loaded, err := store.Get(ctx, threadID, "")
		assert.NoError(t, err)
		assert.Equal(t, workflow.NodeGenerate, loaded.Node)
		assert.Equal(t, "billing", loaded.RoutedCategory)
	})

	t.Run("Parent chain", func(t *testing.T) {
		records, err := store.List(ctx, threadID)
		assert.NoError(t, err)
		assert.Len(t, records, 2)
		assert.Equal(t, second, records[0].CheckpointID)
		if assert.NotNil(t, records[0].ParentCheckpointID) {
			assert.Equal(t, first, *records[0].ParentCheckpointID)
		}
	})

	t.Run("Replay", func(t *testing.T) {
		trace, err := store.Replay(ctx, threadID, second)
		assert.NoError(t, err)
		assert.Len(t, trace, 2)
		assert.Equal(t, workflow.NodeEvaluateQuality, trace[0].Node)
		assert.Equal(t, workflow.NodeGenerate, trace[1].Node)
	})

	t.Run("Clear", func(t *testing.T) {
		count, err := store.Clear(ctx, threadID)
		assert.NoError(t, err)
		assert.Equal(t, int64(2), count)
	})
}
