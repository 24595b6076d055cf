package usecase

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/comparador-uy/backend/internal/domain"
)

func floatPtr(v float64) *float64 { return &v }
func boolPtr(v bool) *bool        { return &v }

func withOffers(offers ...*domain.CommercialOffer) *domain.Candidate {
	sellers := make([]domain.Seller, 0, len(offers))
	for _, o := range offers {
		sellers = append(sellers, domain.Seller{CommertialOffer: o})
	}
	return &domain.Candidate{
		ProductName: "Harina 0000 Pity 1kg",
		LinkText:    "harina-0000-pity-1kg",
		Items:       []domain.Item{{Sellers: sellers}},
	}
}

func TestExtractOffer(t *testing.T) {
	testCases := []struct {
		name      string
		candidate *domain.Candidate
		wantPrice *float64
		wantList  *float64
		wantAvail bool
	}{
		{
			name:      "full offer",
			candidate: withOffers(&domain.CommercialOffer{Price: floatPtr(45), ListPrice: floatPtr(50), IsAvailable: boolPtr(true)}),
			wantPrice: floatPtr(45),
			wantList:  floatPtr(50),
			wantAvail: true,
		},
		{
			name:      "first priced offer wins",
			candidate: withOffers(nil, &domain.CommercialOffer{}, &domain.CommercialOffer{Price: floatPtr(30), IsAvailable: boolPtr(false)}, &domain.CommercialOffer{Price: floatPtr(20)}),
			wantPrice: floatPtr(30),
			wantList:  floatPtr(30),
			wantAvail: false,
		},
		{
			name:      "zero list price falls back to price",
			candidate: withOffers(&domain.CommercialOffer{Price: floatPtr(45), ListPrice: floatPtr(0)}),
			wantPrice: floatPtr(45),
			wantList:  floatPtr(45),
			wantAvail: true,
		},
		{
			name:      "no priced offer",
			candidate: withOffers(&domain.CommercialOffer{ListPrice: floatPtr(50), IsAvailable: boolPtr(true)}),
		},
		{
			name:      "no items",
			candidate: &domain.Candidate{ProductName: "Arroz"},
		},
		{
			name: "nil candidate",
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			offer := ExtractOffer(tc.candidate)

			assert.Equal(t, tc.wantAvail, offer.Available)
			if tc.wantPrice == nil {
				assert.Nil(t, offer.Price)
				assert.Nil(t, offer.ListPrice)
				return
			}
			require.NotNil(t, offer.Price)
			require.NotNil(t, offer.ListPrice)
			assert.Equal(t, *tc.wantPrice, *offer.Price)
			assert.Equal(t, *tc.wantList, *offer.ListPrice)
		})
	}
}

func TestExtractOffer_DoesNotAliasCandidate(t *testing.T) {
	c := withOffers(&domain.CommercialOffer{Price: floatPtr(45)})

	offer := ExtractOffer(c)
	*offer.Price = 1

	assert.Equal(t, 45.0, *c.Items[0].Sellers[0].CommertialOffer.Price)
}

func TestBuildProductURL(t *testing.T) {
	c := &domain.Candidate{LinkText: "harina-0000-pity-1kg"}

	assert.Equal(t, "https://tata.com.uy/harina-0000-pity-1kg/p", BuildProductURL("https://tata.com.uy", c))
	assert.Equal(t, "https://tata.com.uy/harina-0000-pity-1kg/p", BuildProductURL("https://tata.com.uy/", c))
	assert.Equal(t, "", BuildProductURL("https://tata.com.uy", &domain.Candidate{ProductName: "Sin slug"}))
	assert.Equal(t, "", BuildProductURL("https://tata.com.uy", nil))
}

func TestCandidateName(t *testing.T) {
	assert.Equal(t, "Harina 0000 Pity 1kg", CandidateName(&domain.Candidate{ProductName: " Harina 0000 Pity 1kg "}))
	assert.Equal(t, "harina 0000 pity 1kg", CandidateName(&domain.Candidate{LinkText: "harina-0000-pity-1kg"}))
	assert.Equal(t, "", CandidateName(nil))
}
