package roster

// defaultNames lists MotoGP riders of the recent seasons. Entries whose
// compact form is contained in another entry must come after it.
//
//nolint:gochecknoglobals // static data
var defaultNames = []string{
	"Francesco BAGNAIA",
	"Jorge MARTIN",
	"Marco BEZZECCHI",
	"Brad BINDER",
	"Johann ZARCO",
	"Luca MARINI",
	"Aleix ESPARGARO",
	"Pol ESPARGARO",
	"Maverick VIÑALES",
	"Fabio QUARTARARO",
	"Franco MORBIDELLI",
	"Alex RINS",
	"Joan MIR",
	"Marc MARQUEZ",
	"Alex MARQUEZ",
	"Jack MILLER",
	"Enea BASTIANINI",
	"Fabio DI GIANNANTONIO",
	"Augusto FERNANDEZ",
	"Raul FERNANDEZ",
	"Miguel OLIVEIRA",
	"Takaaki NAKAGAMI",
	"Stefan BRADL",
	"Dani PEDROSA",
	"Michele PIRRO",
	"Lorenzo SAVADORI",
	"Iker LECUONA",
	"Jonas FOLGER",
	"Cal CRUTCHLOW",
	"Danilo PETRUCCI",
	"Pedro ACOSTA",
	"Fermin ALDEGUER",
	"Ai OGURA",
	"Somkiat CHANTRA",
	"Andrea IANNONE",
	"Remy GARDNER",
	"Darryn BINDER",
	"Valentino ROSSI",
	"Andrea DOVIZIOSO",
}

// Default returns the built-in roster.
func Default() Roster {
	return New(defaultNames...)
}
