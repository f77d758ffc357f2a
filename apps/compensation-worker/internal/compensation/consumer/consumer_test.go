package consumer

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	redis "github.com/redis/go-redis/v9"

	"github.com/has99an/GeorgiaTechLibrary.Marketplace-sub004/shared/domain/compensation"
)

func TestFailureTypeStringsPreservesOrder(t *testing.T) {
	got := failureTypeStrings([]compensation.FailureType{
		compensation.FailureInventoryReservation,
		compensation.FailureSellerStatsUpdate,
	})
	if len(got) != 2 || got[0] != "InventoryReservation" || got[1] != "SellerStatsUpdate" {
		t.Fatalf("unexpected summary: %v", got)
	}
}

func TestMarkEventProcessedIsOncePerEventID(t *testing.T) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("miniredis.Run: %v", err)
	}
	defer mr.Close()
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	c := &Consumer{redis: client, processedEventTTL: time.Hour}
	ctx := context.Background()

	if !c.markEventProcessed(ctx, "event-1") {
		t.Fatal("expected first delivery of event-1 to be accepted")
	}
	if c.markEventProcessed(ctx, "event-1") {
		t.Fatal("expected redelivery of event-1 to be rejected")
	}
	if !c.markEventProcessed(ctx, "event-2") {
		t.Fatal("expected a distinct event id to be accepted")
	}
}
