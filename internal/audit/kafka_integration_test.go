//go:build integration

package audit_test

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"github.com/twmb/franz-go/pkg/kgo"

	"phishsim/internal/audit"
	"phishsim/internal/models"
	"phishsim/internal/platform/kafka"
	id "phishsim/pkg/domain"
	"phishsim/pkg/testutil/containers"
)

func TestKafkaSinkAgainstRedpanda(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	ctx := context.Background()
	rp := containers.GetManager().GetRedpanda(t)

	const topic = "phishsim.audit.it"
	producer, err := kafka.NewProducer([]string{rp.Broker}, topic)
	require.NoError(t, err)
	t.Cleanup(producer.Close)
	require.NoError(t, kafka.EnsureTopic(ctx, producer, topic, 1))

	entry := audit.Global(id.AdminID(uuid.New()), audit.ActionPauseGlobal, audit.ResourceSystem, "global_send")
	require.NoError(t, audit.NewKafkaSink(producer, topic).Publish(ctx, []*models.AuditLog{entry}))

	consumer, err := kgo.NewClient(
		kgo.SeedBrokers(rp.Broker),
		kgo.ConsumeTopics(topic),
		kgo.ConsumeResetOffset(kgo.NewOffset().AtStart()),
	)
	require.NoError(t, err)
	t.Cleanup(consumer.Close)

	pollCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()
	fetches := consumer.PollFetches(pollCtx)
	require.Empty(t, fetches.Errors())
	records := fetches.Records()
	require.NotEmpty(t, records)
	require.Equal(t, "global", string(records[0].Key))
}
