package sim

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/vsarmando/Ryze-Agents-sub002/market"
)

func TestTriggered(t *testing.T) {
	t.Parallel()

	q := market.Quote{Bid: 1.0998, Ask: 1.1002}

	tests := []struct {
		name string
		req  OrderRequest
		want bool
	}{
		{"buy limit above ask", OrderRequest{Kind: Limit, Side: Buy, Price: 1.1005}, true},
		{"buy limit at ask", OrderRequest{Kind: Limit, Side: Buy, Price: 1.1002}, true},
		{"buy limit below ask", OrderRequest{Kind: Limit, Side: Buy, Price: 1.1000}, false},
		{"sell limit below bid", OrderRequest{Kind: Limit, Side: Sell, Price: 1.0990}, true},
		{"sell limit above bid", OrderRequest{Kind: Limit, Side: Sell, Price: 1.1000}, false},
		{"buy stop below ask", OrderRequest{Kind: Stop, Side: Buy, Price: 1.1000}, true},
		{"buy stop above ask", OrderRequest{Kind: Stop, Side: Buy, Price: 1.1010}, false},
		{"sell stop above bid", OrderRequest{Kind: Stop, Side: Sell, Price: 1.1000}, true},
		{"sell stop below bid", OrderRequest{Kind: Stop, Side: Sell, Price: 1.0990}, false},
		{"market never triggers", OrderRequest{Kind: Market, Side: Buy, Price: 2}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, triggered(tt.req, q))
		})
	}
}
