package inbox

import (
	"context"
	"testing"
)

func TestMemorySeen(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	in := NewMemory()
	if seen, err := in.Seen(ctx, "evt-1"); err != nil || seen {
		t.Fatalf("expected first delivery to be new, got seen=%v err=%v", seen, err)
	}
	if seen, _ := in.Seen(ctx, "evt-1"); !seen {
		t.Fatalf("expected redelivery to be seen")
	}
	if seen, _ := in.Seen(ctx, "evt-2"); seen {
		t.Fatalf("expected other event to be new")
	}
	if err := in.Forget(ctx, "evt-1"); err != nil {
		t.Fatalf("forget: %v", err)
	}
	if seen, _ := in.Seen(ctx, "evt-1"); seen {
		t.Fatalf("expected forgotten event to be new again")
	}
}
