package shared

const (
	CountryFrance   = "france"
	CountryBelgique = "belgique"
	CountrySuisse   = "suisse"
	CountryIndecis  = "indecis"

	StatusNouveau = "nouveau"

	MsgNameLength       = "Le nom doit contenir entre 2 et 100 caractères"
	MsgEmailInvalid     = "Email invalide"
	MsgPhoneInvalid     = "Numéro de téléphone invalide"
	MsgCountryInvalid   = "Pays invalide"
	MsgProfessionLength = "La profession doit contenir entre 2 et 100 caractères"
	MsgMessageLength    = "Le message doit contenir entre 10 et 1000 caractères"

	MsgInvalidBody      = "Requête invalide"
	MsgSpamRejected     = "Soumission invalide"
	MsgRateLimited      = "Trop de tentatives. Veuillez réessayer plus tard."
	MsgSubmissionSaved  = "Candidature soumise avec succès"
	MsgInternalError    = "Une erreur est survenue"
)

// ValidCountries are the accepted destinations after accent and case folding.
var ValidCountries = []string{CountryFrance, CountryBelgique, CountrySuisse, CountryIndecis}
