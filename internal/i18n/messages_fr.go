package i18n

var messagesFR = map[string]string{
	"success": "Succès",

	"error.bad_request":            "Requête invalide",
	"error.unauthorized":           "Non authentifié",
	"error.forbidden":              "Accès refusé",
	"error.not_found":              "Ressource introuvable",
	"error.internal":               "Erreur interne du serveur",
	"error.too_many_requests":      "Trop de tentatives, réessayez dans %d secondes",
	"error.rate_limit_unavailable": "Limitation de débit temporairement indisponible",
	"error.token_invalid":          "Session invalide, veuillez vous reconnecter",
	"error.token_revoked":          "Session révoquée, veuillez vous reconnecter",
	"error.auth_header_missing":    "En-tête Authorization manquant",
	"error.auth_header_invalid":    "En-tête Authorization invalide",
	"error.phone_invalid":          "Numéro de téléphone invalide",
	"error.otp_invalid":            "Code de vérification incorrect",
	"error.otp_expired":            "Code de vérification expiré",
	"error.otp_attempts_exceeded":  "Trop de tentatives, demandez un nouveau code",
	"error.otp_too_frequent":       "Veuillez patienter avant de demander un nouveau code",
	"error.otp_send_failed":        "Impossible d'envoyer le code de vérification",
	"error.captcha_required":       "Captcha requis",
	"error.captcha_invalid":        "Captcha incorrect",
	"error.captcha_config_invalid": "Captcha non configuré",
	"error.account_disabled":       "Compte désactivé",
	"error.profile_required":       "Veuillez d'abord choisir votre rôle",
	"error.profile_exists":         "Le profil existe déjà",
	"error.profile_inactive":       "Profil désactivé",
	"error.builtin_policy_locked":  "Les stratégies des rôles intégrés ne peuvent pas être révoquées",
	"error.role_invalid":           "Rôle invalide",
	"error.role_immutable":         "Le rôle ne peut pas être modifié",
	"error.full_name_required":     "Le nom complet est requis",
	"error.gender_invalid":         "Genre invalide",
	"error.age_invalid":            "Âge invalide",
	"error.location_invalid":       "Département ou ville invalide",
	"error.email_invalid":          "Adresse e-mail invalide",
	"error.referral_code_invalid":  "Code de parrainage invalide",
	"error.company_name_required":  "Le nom de l'entreprise est requis",

	"error.campaign_not_found":          "Campagne introuvable",
	"error.campaign_title_required":     "Le titre est requis",
	"error.campaign_cost_per_view":      "Le prix par vue doit être positif",
	"error.campaign_budget_invalid":     "Le budget doit être positif",
	"error.campaign_target_views":       "Le nombre de vues cible doit être positif",
	"error.campaign_age_range_invalid":  "Tranche d'âge invalide",
	"error.campaign_media_type_invalid": "Type de média invalide",
	"error.campaign_dates_invalid":      "Dates de campagne invalides",
	"error.audience_rule_invalid":       "Règle d'audience invalide",
	"error.campaign_status_invalid":     "Statut de campagne incompatible",
	"error.campaign_not_available":      "Campagne indisponible",
	"error.rejection_reason_required":   "Le motif du refus est requis",

	"error.application_not_found":      "Candidature introuvable",
	"error.application_duplicate":      "Vous avez déjà postulé à cette campagne",
	"error.application_status_invalid": "Statut de candidature incompatible",
	"error.targeting_mismatch":         "Votre profil ne correspond pas au ciblage de la campagne",

	"error.proof_not_found":         "Preuve introuvable",
	"error.proof_already_uploaded":  "Une preuve a déjà été envoyée",
	"error.proof_already_validated": "Cette preuve a déjà été traitée",
	"error.views_out_of_range":      "Le nombre de vues doit être compris entre 1 et 1000",

	"error.wallet_not_found":            "Portefeuille introuvable",
	"error.wallet_amount_invalid":       "Montant invalide",
	"error.wallet_insufficient_balance": "Solde insuffisant",
	"error.wallet_transaction_not_found": "Transaction introuvable",
	"error.wallet_transaction_status":   "Statut de transaction incompatible",

	"error.notification_not_found": "Notification introuvable",
	"error.upload_file_required":   "Fichier requis",
	"error.upload_too_large":       "Fichier trop volumineux",
	"error.upload_type_invalid":    "Type de fichier non autorisé",
	"error.storage_unavailable":    "Stockage indisponible",

	"otp.message": "Votre code AdStatus est : %s. Il expire dans %d minutes.",

	"notification.campaign_validated.title":    "Campagne validée",
	"notification.campaign_validated.message":  "Votre campagne « %s » a été validée et est maintenant active.",
	"notification.campaign_rejected.title":     "Campagne refusée",
	"notification.campaign_rejected.message":   "Votre campagne « %s » a été refusée : %s",
	"notification.application_received.title":  "Nouvelle candidature",
	"notification.application_received.message": "%s souhaite diffuser votre campagne « %s ».",
	"notification.application_accepted.title":  "Candidature acceptée",
	"notification.application_accepted.message": "Votre candidature pour « %s » est acceptée. Publiez et envoyez la preuve sous %d h.",
	"notification.application_rejected.title":  "Candidature refusée",
	"notification.application_rejected.message": "Votre candidature pour « %s » a été refusée.",
	"notification.proof_submitted.title":       "Nouvelle preuve à valider",
	"notification.proof_submitted.message":     "Une preuve a été soumise pour la campagne « %s ».",
	"notification.proof_validated.title":       "Preuve validée",
	"notification.proof_validated.message":     "Votre preuve pour « %s » est validée : %s %s crédités sur votre portefeuille.",
	"notification.proof_rejected.title":        "Preuve refusée",
	"notification.proof_rejected.message":      "Votre preuve pour « %s » a été refusée : %s",
	"notification.proof_deadline_missed.title": "Délai de preuve dépassé",
	"notification.proof_deadline_missed.message": "Le délai de %d h pour publier la campagne « %s » est dépassé.",
	"notification.withdrawal_processed.title":  "Retrait traité",
	"notification.withdrawal_processed.message": "Votre retrait de %s %s a été traité.",
	"notification.withdrawal_cancelled.message": "Votre retrait de %s %s a été annulé, les fonds sont de nouveau disponibles.",
	"notification.referral_bonus.title":        "Bonus de parrainage",
	"notification.referral_bonus.message":      "Vous avez reçu un bonus de parrainage de %s %s.",
}
