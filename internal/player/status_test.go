package player

import "testing"

func TestStoreRequestIDZeroIgnored(t *testing.T) {
	ps := NewPlayerStatus()

	ps.StoreRequestID(ReqSetVolume, 3)
	ps.StoreRequestID(ReqSetVolume, 0)
	if got := ps.RequestID(ReqSetVolume); got != 3 {
		t.Errorf("RequestID(ReqSetVolume) = %d, want 3", got)
	}

	ps.StoreRequestID(ReqLoad, 0)
	if got := ps.RequestID(ReqLoad); got != 0 {
		t.Errorf("RequestID(ReqLoad) = %d, want 0", got)
	}
}

func TestRequestSlotsIndependent(t *testing.T) {
	ps := NewPlayerStatus()

	ps.StoreRequestID(ReqLoad, 1)
	ps.StoreRequestID(ReqPause, 2)
	ps.StoreRequestID(ReqSeek, 3)

	if got := ps.RequestID(ReqLoad); got != 1 {
		t.Errorf("RequestID(ReqLoad) = %d, want 1", got)
	}
	if got := ps.RequestID(ReqPause); got != 2 {
		t.Errorf("RequestID(ReqPause) = %d, want 2", got)
	}
	if got := ps.RequestID(ReqSeek); got != 3 {
		t.Errorf("RequestID(ReqSeek) = %d, want 3", got)
	}
	if got := ps.RequestID(ReqPlay); got != 0 {
		t.Errorf("RequestID(ReqPlay) = %d, want 0", got)
	}
}

func TestStatusString(t *testing.T) {
	tests := []struct {
		status Status
		want   string
	}{
		{StatusIdle, "idle"},
		{StatusLoading, "loading"},
		{StatusReady, "ready"},
	}
	for _, tt := range tests {
		if got := tt.status.String(); got != tt.want {
			t.Errorf("Status(%d).String() = %q, want %q", tt.status, got, tt.want)
		}
	}
}
