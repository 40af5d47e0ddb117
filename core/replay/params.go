package replay

import (
	"os"

	"github.com/meridian-network/meridian/registry/beacon"
	"golang.org/x/xerrors"
	"gopkg.in/yaml.v2"
)

// Params holds the network-specific constants of the replay engine.
type Params struct {
	// TestNet marks the test network.
	TestNet bool `yaml:"testnet"`

	// ContractActivationHeight is the height below which contracts were not
	// yet a consensus feature and replay is skipped entirely.
	ContractActivationHeight int64 `yaml:"contract_activation_height"`

	// BeaconMaxAge is the validity window bounding how far back a replay
	// must scan, in seconds.
	BeaconMaxAge int64 `yaml:"beacon_max_age"`

	// SuperblockContractVersion is the minimum block version whose
	// superblocks carry verified beacons to activate.
	SuperblockContractVersion int `yaml:"superblock_contract_version"`
}

// MainNetParams returns the parameters of the main network.
func MainNetParams() Params {
	return Params{
		ContractActivationHeight:  164618,
		BeaconMaxAge:              beacon.MaxAge,
		SuperblockContractVersion: 11,
	}
}

// TestNetParams returns the parameters of the test network.
func TestNetParams() Params {
	return Params{
		TestNet:                   true,
		ContractActivationHeight:  1,
		BeaconMaxAge:              beacon.MaxAge,
		SuperblockContractVersion: 11,
	}
}

// LoadParams reads parameters from a YAML file. Missing fields keep the
// main network defaults.
func LoadParams(path string) (Params, error) {
	params := MainNetParams()

	data, err := os.ReadFile(path)
	if err != nil {
		return params, xerrors.Errorf("couldn't read params file: %v", err)
	}

	err = yaml.Unmarshal(data, &params)
	if err != nil {
		return params, xerrors.Errorf("couldn't decode params file: %v", err)
	}

	if params.TestNet && params.ContractActivationHeight == 164618 {
		params.ContractActivationHeight = 1
	}

	return params, nil
}
