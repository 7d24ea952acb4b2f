package evm

import (
	"strings"

	"github.com/ethereum/go-ethereum/accounts/abi"
)

// StreamABI is the interaction interface of the streaming contract.
const StreamABI = `[
  {"type":"function","name":"createStream","stateMutability":"payable",
   "inputs":[{"name":"recipient","type":"address"},{"name":"deposit","type":"uint256"},{"name":"duration","type":"uint256"},{"name":"isNative","type":"bool"}],
   "outputs":[{"name":"streamId","type":"uint256"}]},
  {"type":"function","name":"cancelStream","stateMutability":"nonpayable",
   "inputs":[{"name":"streamId","type":"uint256"}],"outputs":[]},
  {"type":"function","name":"withdrawFromStream","stateMutability":"nonpayable",
   "inputs":[{"name":"streamId","type":"uint256"},{"name":"amount","type":"uint256"}],"outputs":[]},
  {"type":"function","name":"getStreamDetails","stateMutability":"view",
   "inputs":[{"name":"streamId","type":"uint256"}],
   "outputs":[{"name":"sender","type":"address"},{"name":"recipient","type":"address"},{"name":"deposit","type":"uint256"},{"name":"startTime","type":"uint256"},{"name":"stopTime","type":"uint256"},{"name":"ratePerSecond","type":"uint256"},{"name":"remainingBalance","type":"uint256"},{"name":"isNative","type":"bool"}]},
  {"type":"function","name":"getUserStreams","stateMutability":"view",
   "inputs":[{"name":"user","type":"address"}],"outputs":[{"name":"","type":"uint256[]"}]},
  {"type":"event","name":"StreamCreated","anonymous":false,
   "inputs":[{"name":"streamId","type":"uint256","indexed":true},{"name":"sender","type":"address","indexed":true},{"name":"recipient","type":"address","indexed":true},{"name":"deposit","type":"uint256","indexed":false},{"name":"startTime","type":"uint256","indexed":false},{"name":"stopTime","type":"uint256","indexed":false},{"name":"isNative","type":"bool","indexed":false}]}
]`

// TokenABI exposes only approve and allowance of an ERC-20 token.
const TokenABI = `[
  {"type":"function","name":"approve","stateMutability":"nonpayable",
   "inputs":[{"name":"spender","type":"address"},{"name":"amount","type":"uint256"}],"outputs":[{"name":"","type":"bool"}]},
  {"type":"function","name":"allowance","stateMutability":"view",
   "inputs":[{"name":"owner","type":"address"},{"name":"spender","type":"address"}],"outputs":[{"name":"","type":"uint256"}]}
]`

const streamCreatedEvent = "StreamCreated"

var (
	streamABI = mustParseABI(StreamABI)
	tokenABI  = mustParseABI(TokenABI)
)

func mustParseABI(def string) abi.ABI {
	parsed, err := abi.JSON(strings.NewReader(def))
	if err != nil {
		panic(err)
	}
	return parsed
}
