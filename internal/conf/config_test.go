package conf

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad(t *testing.T) {
	c, err := Load("testdata/config.yaml")
	require.NoError(t, err)
	require.NoError(t, c.Validate())

	assert.Equal(t, "127.0.0.1:18000", c.Server.Http.Addr)
	assert.Equal(t, "DEMO0001", c.GetPayment().GetVnpay().TmnCode)
	assert.Equal(t, "MOMO0001", c.GetPayment().GetMomo().PartnerCode)
	assert.Equal(t, "VND", c.Checkout.Currency)

	fee, ok := c.GetCheckout().ShippingFee("EXPRESS")
	require.True(t, ok)
	assert.Equal(t, 50000.0, fee)

	_, ok = c.GetCheckout().ShippingFee("DRONE")
	assert.False(t, ok)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load("testdata/does-not-exist.yaml")
	require.Error(t, err)
}

func TestValidate(t *testing.T) {
	c, err := Load("testdata/config.yaml")
	require.NoError(t, err)

	c.Checkout.ShippingFees = nil
	require.Error(t, c.Validate())

	c, _ = Load("testdata/config.yaml")
	c.Data.Database.Source = ""
	require.Error(t, c.Validate())
}

func TestNilSafeGetters(t *testing.T) {
	var b *Bootstrap
	assert.Nil(t, b.GetPayment().GetVnpay())
	assert.Nil(t, b.GetPayment().GetMomo())

	_, ok := b.GetCheckout().ShippingFee("STANDARD")
	assert.False(t, ok)
}
