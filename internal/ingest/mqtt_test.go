package ingest

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pepsafe/pepsafe-backend-go/internal/metrics"
	"github.com/pepsafe/pepsafe-backend-go/internal/models"
)

type fakeProcessor struct {
	reqs []models.PingRequest
	err  error
}

func (p *fakeProcessor) ProcessPing(ctx context.Context, req *models.PingRequest) (*models.PingResponse, error) {
	if _, ok := ctx.Deadline(); !ok {
		return nil, errors.New("missing deadline")
	}
	p.reqs = append(p.reqs, *req)
	return &models.PingResponse{Status: models.PingAccepted}, p.err
}

func newTestSubscriber(p PingProcessor) *Subscriber {
	return NewSubscriber(Config{SubjectID: "pepper", Topic: "owntracks/+/+"}, p, nil)
}

func TestHandleMessage_Location(t *testing.T) {
	p := &fakeProcessor{}
	before := testutil.ToFloat64(metrics.MQTTMessagesTotal.WithLabelValues("processed"))

	err := newTestSubscriber(p).HandleMessage(context.Background(),
		[]byte(`{"_type":"location","lat":32.1,"lon":34.8,"vel":18,"cog":270,"acc":12,"tst":1741953600,"tid":"ab","batt":80}`))
	require.NoError(t, err)
	require.Len(t, p.reqs, 1)

	req := p.reqs[0]
	assert.Equal(t, "pepper", req.Subject())
	assert.InDelta(t, 5.0, *req.Speed, 1e-9)
	assert.Equal(t, 270.0, *req.Bearing)
	assert.Equal(t, 12.0, *req.Accuracy)
	assert.Equal(t, time.Date(2025, 3, 14, 12, 0, 0, 0, time.UTC), *req.Timestamp)
	assert.Equal(t, before+1, testutil.ToFloat64(metrics.MQTTMessagesTotal.WithLabelValues("processed")))
}

func TestHandleMessage_IgnoresNonLocation(t *testing.T) {
	p := &fakeProcessor{}

	require.NoError(t, newTestSubscriber(p).HandleMessage(context.Background(), []byte(`{"_type":"lwt","tst":1}`)))
	assert.Empty(t, p.reqs)
}

func TestHandleMessage_InvalidJSON(t *testing.T) {
	p := &fakeProcessor{}

	assert.Error(t, newTestSubscriber(p).HandleMessage(context.Background(), []byte(`{`)))
	assert.Empty(t, p.reqs)
}

func TestHandleMessage_PipelineError(t *testing.T) {
	p := &fakeProcessor{err: models.ErrInvalidPing}

	err := newTestSubscriber(p).HandleMessage(context.Background(), []byte(`{"_type":"location","lat":132,"lon":34.8}`))
	assert.ErrorIs(t, err, models.ErrInvalidPing)
}
