package domain

var builtins = []PaymentSourceConfig{
	{
		Key:           "kb_prasac_merchant_payment",
		DisplayName:   "KB Prasac Merchant Payment",
		Identifier:    "Received Payment Amount",
		AmountPattern: `Received Payment Amount\s+([\d.]+)\s+USD`,
		PayerPattern:  `- Paid by:\s+([^/]+)\s+/`,
		Description:   "KB Prasac merchant payment notifications",
	},
	{
		Key:           "aba_bank",
		DisplayName:   "ABA Bank Transfer",
		Identifier:    "ABA",
		AmountPattern: `Amount:\s*USD\s*([\d.]+)`,
		PayerPattern:  `From:\s*([^,\n]+)`,
		Description:   "ABA Bank transfer notifications",
	},
	{
		Key:           "wing_money",
		DisplayName:   "Wing Money Transfer",
		Identifier:    "Wing",
		AmountPattern: `Received\s+([\d.]+)\s+USD`,
		PayerPattern:  `From:\s*([^,\n]+)`,
		Description:   "Wing Money transfer notifications",
	},
	{
		Key:           "acleda_bank",
		DisplayName:   "ACLEDA Bank",
		Identifier:    "ACLEDA",
		AmountPattern: `Amount:\s*([\d.]+)\s*USD`,
		PayerPattern:  `Sender:\s*([^,\n]+)`,
		Description:   "ACLEDA Bank payment notifications",
	},
}

// Builtins returns copies of the built-in sources in display order.
func Builtins() []PaymentSourceConfig {
	out := make([]PaymentSourceConfig, len(builtins))
	copy(out, builtins)
	return out
}

// Builtin looks up a built-in source by key.
func Builtin(key string) (PaymentSourceConfig, bool) {
	for _, src := range builtins {
		if src.Key == key {
			return src, true
		}
	}
	return PaymentSourceConfig{}, false
}

// DefaultSource is the built-in every group falls back to.
func DefaultSource() PaymentSourceConfig {
	src, _ := Builtin(DefaultKey)
	return src
}
