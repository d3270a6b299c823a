package tier

// DefaultDefinitions returns the stock Nebulon tier ladder.
func DefaultDefinitions() []Definition {
	return []Definition{
		{ID: 1, Name: "Nebula Prime", PercentileCeiling: 5, RewardShare: 30.0},
		{ID: 2, Name: "Supernova", PercentileCeiling: 10, RewardShare: 20.0},
		{ID: 3, Name: "Quasar", PercentileCeiling: 20, RewardShare: 15.0},
		{ID: 4, Name: "Pulsar", PercentileCeiling: 30, RewardShare: 9.5},
		{ID: 5, Name: "Stellar", PercentileCeiling: 45, RewardShare: 8.5},
		{ID: 6, Name: "Orbit", PercentileCeiling: 60, RewardShare: 5.0},
		{ID: 7, Name: "Satellite", PercentileCeiling: 80, RewardShare: 5.0},
		{ID: 8, Name: "Drift", PercentileCeiling: 90, RewardShare: 5.0},
		{ID: 9, Name: "Void", PercentileCeiling: 99, RewardShare: 2.0},
		{ID: 10, Name: "Deadzone", PercentileCeiling: 100, RewardShare: 0.0},
	}
}

// DefaultMetadataReferences returns the stock IPFS metadata URI per tier.
func DefaultMetadataReferences() map[string]string {
	return map[string]string{
		"1":  "https://ipfs.io/ipfs/QmYY1Dx83eZZFK5jYHfmoG8bCcZzJV5tndFxBkqR1qtTBS",
		"2":  "https://ipfs.io/ipfs/QmWnEPKLpACtaQzR99PSBReMgGTz4aSg2aYfcycLAWbaoE",
		"3":  "https://ipfs.io/ipfs/QmZeEzNvi2KzabVY6H8gpMJqe12yMDFaFw8xpVf6WcCcQK",
		"4":  "https://ipfs.io/ipfs/QmZR9kEMwKPCZ5tiDBEfGmy1ow2DqQv7o3JmXc7WLKn8pQ",
		"5":  "https://ipfs.io/ipfs/QmSqnQEfpuroog6VmLrx1byFGjGQdhR6z1pQVzRjAK2Bdx",
		"6":  "https://ipfs.io/ipfs/QmYr4SpuTR8N3meZC3UpJkpK1yM2ZxxSG62rZYjGqSsYdg",
		"7":  "https://ipfs.io/ipfs/QmeR1xvuMBdNXiQpLhyWwZSAi2jss9V5EqPjdJeU2h55vm",
		"8":  "https://ipfs.io/ipfs/QmbRRi252mYmpTpBLvWGhAP9Z93CEXXhzfFMLm29jyix7S",
		"9":  "https://ipfs.io/ipfs/QmfEiQSGBY447aSU1panm9EbuSufaJ2GQ6nmRUDuobMPLG",
		"10": "https://ipfs.io/ipfs/QmVdjCRYhQSo8MQzAviNqotPu5PA7EXt75JQRcfgKZSSHT",
	}
}

// Default builds the stock table with its metadata mapping.
func Default() *Table {
	t, err := New(DefaultDefinitions(), DefaultMetadataReferences())
	if err != nil {
		panic("tier: default table is invalid: " + err.Error())
	}
	return t
}
