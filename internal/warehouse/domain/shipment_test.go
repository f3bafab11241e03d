package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestShipmentConfirmArrival(t *testing.T) {
	shipment := &Shipment{DriverName: "Budi", DepartedAt: time.Now()}
	arrivedAt := time.Now()

	require.NoError(t, shipment.ConfirmArrival(arrivedAt, "Siti", "left at gate", "https://cdn/pod.jpg"))
	assert.True(t, shipment.Arrived())
	assert.Equal(t, "Siti", shipment.ReceiverName)
	assert.Equal(t, arrivedAt, *shipment.ArrivedAt)

	// A second confirmation must not move the timestamp.
	err := shipment.ConfirmArrival(time.Now().Add(time.Hour), "Andi", "", "")
	var serr *InvalidStateError
	require.ErrorAs(t, err, &serr)
	assert.Equal(t, arrivedAt, *shipment.ArrivedAt)
	assert.Equal(t, "Siti", shipment.ReceiverName)
}

func TestShipmentConfirmArrivalRequiresReceiver(t *testing.T) {
	shipment := &Shipment{DriverName: "Budi"}

	err := shipment.ConfirmArrival(time.Now(), "", "", "")
	var verr *ValidationError
	assert.ErrorAs(t, err, &verr)
	assert.False(t, shipment.Arrived())
}

func TestProductionRequestApprove(t *testing.T) {
	request := &ProductionRequest{OrderNumber: "SPK-001", Status: ProductionPending}
	now := time.Now()

	require.NoError(t, request.Approve("gudang1", now))
	assert.Equal(t, ProductionApproved, request.Status)
	assert.Equal(t, "gudang1", request.ApprovedBy)
	assert.Equal(t, now, *request.ApprovedAt)

	err := request.Approve("gudang2", time.Now())
	var serr *InvalidStateError
	assert.ErrorAs(t, err, &serr)
	assert.Equal(t, "gudang1", request.ApprovedBy)
}
