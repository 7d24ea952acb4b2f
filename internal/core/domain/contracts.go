package domain

// Deployed contract addresses
const (
	StreamContractAddress = "0x315c7B1205FcbDC5c8c38C2A4CAA7de0b890Fc2f"
	TokenContractAddress  = "0x426E7d03f9803Dd11cb8616C65b99a3c0AfeA6dE"
)

// TokenSymbol is the deposit token used for non-native streams.
const TokenSymbol = "USDe"

// NativeDecimals is the precision of both the native asset and the deposit token.
const NativeDecimals = 18
