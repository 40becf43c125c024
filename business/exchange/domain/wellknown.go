package domain

import "strings"

// Well-known GalaChain token class keys. The live token set comes from the
// venue; these cover mock-mode defaults and configuration shorthand.
var (
	GALA  = TokenRef{Symbol: "GALA", ClassKey: NewTokenClassKey("GALA", "Unit", "none", "none")}
	GUSDC = TokenRef{Symbol: "GUSDC", ClassKey: NewTokenClassKey("GUSDC", "Unit", "none", "none")}
	GUSDT = TokenRef{Symbol: "GUSDT", ClassKey: NewTokenClassKey("GUSDT", "Unit", "none", "none")}
	GWETH = TokenRef{Symbol: "GWETH", ClassKey: NewTokenClassKey("GWETH", "Unit", "none", "none")}
)

// WellKnownTokens maps symbols to the tokens above.
var WellKnownTokens = map[string]TokenRef{
	GALA.Symbol:  GALA,
	GUSDC.Symbol: GUSDC,
	GUSDT.Symbol: GUSDT,
	GWETH.Symbol: GWETH,
}

// TokenBySymbol resolves a well-known token by symbol. Unknown symbols get a
// synthesized fungible-token class key so configured pairs outside the list
// still work.
func TokenBySymbol(symbol string) TokenRef {
	symbol = strings.ToUpper(symbol)
	if t, ok := WellKnownTokens[symbol]; ok {
		return t
	}
	return TokenRef{Symbol: symbol, ClassKey: NewTokenClassKey(symbol, "Unit", "none", "none")}
}
