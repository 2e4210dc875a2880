package report

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestStoreLinksReverseDomain(t *testing.T) {
	require := require.New(t)

	links := StoreLinks("com.example.app", "")
	require.Nil(links.AppStore)
	require.NotNil(links.PlayStore)
	require.Equal("https://play.google.com/store/apps/details?id=com.example.app", *links.PlayStore)
}

func TestStoreLinksNumeric(t *testing.T) {
	require := require.New(t)

	links := StoreLinks("997700435", "")
	require.Nil(links.PlayStore)
	require.NotNil(links.AppStore)
	require.Equal("https://apps.apple.com/app/id997700435", *links.AppStore)
}

func TestStoreLinksIDPrefix(t *testing.T) {
	require := require.New(t)

	links := StoreLinks("id123456789", "")
	require.NotNil(links.AppStore)
	require.Equal("https://apps.apple.com/app/id123456789", *links.AppStore)
}

func TestStoreLinksPlatformHintOverrides(t *testing.T) {
	require := require.New(t)

	// An android hint on a numeric bundle keeps both families: the hint
	// adds the Play link, the numeric shape keeps the App Store link.
	links := StoreLinks("12345", "Android")
	require.NotNil(links.PlayStore)
	require.NotNil(links.AppStore)
}

func TestStoreLinksEmptyAndOpaque(t *testing.T) {
	require := require.New(t)

	links := StoreLinks("", "")
	require.Nil(links.AppStore)
	require.Nil(links.PlayStore)

	links = StoreLinks("Wt0m9nSXAGYByPqs", "")
	require.Nil(links.AppStore)
	require.Nil(links.PlayStore)
}

func TestStoreLinksIOSHintWithEmbeddedDigits(t *testing.T) {
	require := require.New(t)

	links := StoreLinks("app-997362197-x", "ios")
	require.NotNil(links.AppStore)
	require.Equal("https://apps.apple.com/app/id997362197", *links.AppStore)
}
