package i18n

var messages = map[string]map[string]string{
	"fr": {
		// validation
		"required":                "Requis",
		"invalid_year":            "Année invalide (2000 à 2100)",
		"invalid_sin":             "Le NAS doit contenir 9 chiffres",
		"invalid_date":            "Date invalide (JJ/MM/AAAA)",
		"invalid_postal_code":     "Code postal invalide",
		"invalid_email":           "Courriel invalide",
		"invalid_province":        "Province invalide",
		"invalid_amount":          "Montant invalide",
		"invalid_count":           "Nombre invalide",
		"invalid_neq":             "Le NEQ doit contenir 10 chiffres",
		"invalid_business_number": "Le numéro d'entreprise doit contenir 9 chiffres",
		"phone_or_mobile":         "Un numéro de téléphone ou de cellulaire est requis",
		"dependants_required":     "Ajoutez au moins une personne à charge",
		"must_confirm":            "Cette confirmation est obligatoire",
		// banners and errors
		"error.save_failed":       "Impossible d'enregistrer le dossier. Réessayez.",
		"error.network":           "Erreur réseau. Vérifiez votre connexion.",
		"error.fid_missing":       "Aucun dossier sélectionné. Recommencez depuis la première étape.",
		"error.not_found":         "Dossier introuvable",
		"error.forbidden":         "Accès refusé",
		"error.unsupported_file":  "Type de fichier non accepté",
		"error.file_too_large":    "Fichier trop volumineux",
		"error.no_attachments":    "Ajoutez au moins un document avant de continuer",
		"error.checkout_failed":   "Le paiement n'a pas pu être initié",
		"error.invalid_status":    "Ce dossier ne peut plus être modifié",
		"error.invalid_login":     "Courriel ou mot de passe invalide",
		"error.email_taken":       "Ce courriel est déjà utilisé",
		"error.credentials_empty": "Courriel et mot de passe requis",
		"error.validation":        "Veuillez corriger les champs indiqués",
		"error.unauthorized":      "Veuillez vous connecter",
		"error.invalid_request":   "Requête invalide",
		// ui
		"ui.continue":      "Continuer",
		"ui.save":          "Enregistrer",
		"ui.pay":           "Payer",
		"ui.finish":        "Terminer",
		"ui.upload":        "Téléverser",
		"ui.login":         "Connexion",
		"ui.signup":        "Créer un compte",
		"ui.logout":        "Déconnexion",
		"ui.email":         "Courriel",
		"ui.password":      "Mot de passe",
		"ui.name":          "Nom",
		"ui.attachments":   "Documents joints",
		"ui.summary":       "Résumé",
		"ui.status":        "Statut",
		"ui.saved":         "Enregistré",
		"ui.kind":          "Type de dossier",
		"ui.year":          "Année",
		"ui.holder":        "Titulaire",
		"ui.checklist":     "Liste de vérification",
		"ui.complete":      "Complet",
		"ui.incomplete":    "À compléter",
		"ui.back":          "Retour",
		"ui.my_cases":      "Mes dossiers",
		"ui.new_case":      "Nouveau dossier",
		"ui.no_cases":      "Aucun dossier pour le moment",
		"ui.yes":           "Oui",
		"ui.no":            "Non",
		"ui.add_dependant": "Ajouter une personne à charge",
		"ui.download":      "Télécharger",
		"ui.last_saved":    "Dernier enregistrement",
		"ui.users":         "Utilisateurs",
		"ui.profile":       "Profil",
		"ui.assign":        "Attribuer",
		"ui.staff_mode":    "Mode en personne",
		"ui.thanks":        "Merci! Votre dossier a été reçu.",
		"ui.errors_title":  "Veuillez corriger les éléments suivants",
		"ui.summary_pdf":   "Sommaire PDF",
		"error.internal":   "Une erreur est survenue",
		// statuses
		"status.draft":             "Brouillon",
		"status.ready_for_payment": "En attente de paiement",
		"status.submitted":         "Reçu",
		// kinds
		"kind.individual":    "Particulier (T1)",
		"kind.self_employed": "Travailleur autonome (TA)",
		"kind.corporate":     "Société (T2)",
		// steps
		"step.info":       "Informations",
		"step.income":     "Revenus et dépenses",
		"step.financials": "États financiers",
		"step.documents":  "Documents",
		"step.send":       "Envoi",
		// sections
		"section.identity":      "Identité",
		"section.contact":       "Coordonnées",
		"section.fiscal":        "Année d'imposition",
		"section.spouse":        "Conjoint",
		"section.household":     "Personnes à charge",
		"section.insurance":     "Assurance médicaments (Québec)",
		"section.business":      "Entreprise",
		"section.company":       "Société",
		"section.financials":    "Données financières",
		"section.confirmations": "Confirmations",
		// fields
		"field.identity.firstName":          "Prénom",
		"field.identity.lastName":           "Nom",
		"field.identity.sin":                "NAS",
		"field.identity.dateOfBirth":        "Date de naissance",
		"field.contact.email":               "Courriel",
		"field.contact.phone":               "Téléphone",
		"field.contact.mobile":              "Cellulaire",
		"field.contact.street":              "Adresse",
		"field.contact.city":                "Ville",
		"field.contact.province":            "Province",
		"field.contact.postalCode":          "Code postal",
		"field.fiscal.year":                 "Année",
		"field.spouse.hasSpouse":            "Avez-vous un conjoint?",
		"field.spouse.includeSpouseReturn":  "Inclure la déclaration du conjoint?",
		"field.spouse.firstName":            "Prénom du conjoint",
		"field.spouse.lastName":             "Nom du conjoint",
		"field.spouse.sin":                  "NAS du conjoint",
		"field.spouse.dateOfBirth":          "Date de naissance du conjoint",
		"field.household.dependantCount":    "Nombre de personnes à charge",
		"field.household.dependants":        "Personnes à charge",
		"field.dependant.firstName":         "Prénom",
		"field.dependant.lastName":          "Nom",
		"field.dependant.dateOfBirth":       "Date de naissance",
		"field.dependant.sin":               "NAS",
		"field.dependant.relationship":      "Lien",
		"field.insurance.start":             "Début de la couverture",
		"field.insurance.end":               "Fin de la couverture",
		"field.business.name":               "Nom de l'entreprise",
		"field.business.activity":           "Activité",
		"field.business.grossRevenue":       "Revenus bruts",
		"field.business.expenses":           "Dépenses",
		"field.business.homeOffice":         "Bureau à domicile?",
		"field.business.homeOfficeArea":     "Superficie du bureau (pi²)",
		"field.company.name":                "Raison sociale",
		"field.company.neq":                 "NEQ",
		"field.company.businessNumber":      "Numéro d'entreprise",
		"field.company.fiscalYearEnd":       "Fin d'exercice",
		"field.financials.revenue":          "Chiffre d'affaires",
		"field.financials.hasEmployees":     "Avez-vous des employés?",
		"field.financials.payroll":          "Masse salariale",
		"field.confirmations.accuracy":      "Je confirme l'exactitude des renseignements",
		"field.confirmations.documents":     "J'ai joint tous les documents pertinents",
		"field.confirmations.authorization": "J'autorise la préparation de ma déclaration",
		"field.confirmations.terms":         "J'accepte les conditions du service",
		"pdf.title":                         "Sommaire du dossier",
		"pdf.case":                          "Dossier",
		"pdf.generated":                     "Généré le",
	},
	"en": {
		"required":                          "Required",
		"invalid_year":                      "Invalid year (2000 to 2100)",
		"invalid_sin":                       "SIN must contain 9 digits",
		"invalid_date":                      "Invalid date (DD/MM/YYYY)",
		"invalid_postal_code":               "Invalid postal code",
		"invalid_email":                     "Invalid email",
		"invalid_province":                  "Invalid province",
		"invalid_amount":                    "Invalid amount",
		"invalid_count":                     "Invalid number",
		"invalid_neq":                       "NEQ must contain 10 digits",
		"invalid_business_number":           "Business number must contain 9 digits",
		"phone_or_mobile":                   "A phone or mobile number is required",
		"dependants_required":               "Add at least one dependant",
		"must_confirm":                      "This confirmation is required",
		"error.save_failed":                 "Unable to save your file. Please retry.",
		"error.network":                     "Network error. Check your connection.",
		"error.fid_missing":                 "No file selected. Please start from the first step.",
		"error.not_found":                   "File not found",
		"error.forbidden":                   "Access denied",
		"error.unsupported_file":            "File type not accepted",
		"error.file_too_large":              "File too large",
		"error.no_attachments":              "Add at least one document before continuing",
		"error.checkout_failed":             "Payment could not be started",
		"error.invalid_status":              "This file can no longer be changed",
		"error.invalid_login":               "Invalid email or password",
		"error.email_taken":                 "Email already exists",
		"error.credentials_empty":           "Email and password are required",
		"error.validation":                  "Please fix the highlighted fields",
		"error.unauthorized":                "Please sign in",
		"error.invalid_request":             "Invalid request",
		"ui.continue":                       "Continue",
		"ui.save":                           "Save",
		"ui.pay":                            "Pay",
		"ui.finish":                         "Finish",
		"ui.upload":                         "Upload",
		"ui.login":                          "Log in",
		"ui.signup":                         "Sign up",
		"ui.logout":                         "Log out",
		"ui.email":                          "Email",
		"ui.password":                       "Password",
		"ui.name":                           "Name",
		"ui.attachments":                    "Attachments",
		"ui.summary":                        "Summary",
		"ui.status":                         "Status",
		"ui.saved":                          "Saved",
		"ui.kind":                           "File type",
		"ui.year":                           "Year",
		"ui.holder":                         "Holder",
		"ui.checklist":                      "Checklist",
		"ui.complete":                       "Complete",
		"ui.incomplete":                     "To complete",
		"ui.back":                           "Back",
		"ui.my_cases":                       "My files",
		"ui.new_case":                       "New file",
		"ui.no_cases":                       "No files yet",
		"ui.yes":                            "Yes",
		"ui.no":                             "No",
		"ui.add_dependant":                  "Add a dependant",
		"ui.download":                       "Download",
		"ui.last_saved":                     "Last saved",
		"ui.users":                          "Users",
		"ui.profile":                        "Profile",
		"ui.assign":                         "Assign",
		"ui.staff_mode":                     "In-person mode",
		"ui.thanks":                         "Thank you! Your file has been received.",
		"ui.errors_title":                   "Please fix the following",
		"ui.summary_pdf":                    "PDF summary",
		"error.internal":                    "Something went wrong",
		"status.draft":                      "Draft",
		"status.ready_for_payment":          "Awaiting payment",
		"status.submitted":                  "Received",
		"kind.individual":                   "Individual (T1)",
		"kind.self_employed":                "Self-employed (TA)",
		"kind.corporate":                    "Corporation (T2)",
		"step.info":                         "Information",
		"step.income":                       "Income and expenses",
		"step.financials":                   "Financial statements",
		"step.documents":                    "Documents",
		"step.send":                         "Send",
		"section.identity":                  "Identity",
		"section.contact":                   "Contact",
		"section.fiscal":                    "Tax year",
		"section.spouse":                    "Spouse",
		"section.household":                 "Dependants",
		"section.insurance":                 "Prescription drug insurance (Québec)",
		"section.business":                  "Business",
		"section.company":                   "Company",
		"section.financials":                "Financial data",
		"section.confirmations":             "Confirmations",
		"field.identity.firstName":          "First name",
		"field.identity.lastName":           "Last name",
		"field.identity.sin":                "SIN",
		"field.identity.dateOfBirth":        "Date of birth",
		"field.contact.email":               "Email",
		"field.contact.phone":               "Phone",
		"field.contact.mobile":              "Mobile",
		"field.contact.street":              "Address",
		"field.contact.city":                "City",
		"field.contact.province":            "Province",
		"field.contact.postalCode":          "Postal code",
		"field.fiscal.year":                 "Year",
		"field.spouse.hasSpouse":            "Do you have a spouse?",
		"field.spouse.includeSpouseReturn":  "Include your spouse's return?",
		"field.spouse.firstName":            "Spouse first name",
		"field.spouse.lastName":             "Spouse last name",
		"field.spouse.sin":                  "Spouse SIN",
		"field.spouse.dateOfBirth":          "Spouse date of birth",
		"field.household.dependantCount":    "Number of dependants",
		"field.household.dependants":        "Dependants",
		"field.dependant.firstName":         "First name",
		"field.dependant.lastName":          "Last name",
		"field.dependant.dateOfBirth":       "Date of birth",
		"field.dependant.sin":               "SIN",
		"field.dependant.relationship":      "Relationship",
		"field.insurance.start":             "Coverage start",
		"field.insurance.end":               "Coverage end",
		"field.business.name":               "Business name",
		"field.business.activity":           "Activity",
		"field.business.grossRevenue":       "Gross revenue",
		"field.business.expenses":           "Expenses",
		"field.business.homeOffice":         "Home office?",
		"field.business.homeOfficeArea":     "Office area (sq ft)",
		"field.company.name":                "Legal name",
		"field.company.neq":                 "NEQ",
		"field.company.businessNumber":      "Business number",
		"field.company.fiscalYearEnd":       "Fiscal year end",
		"field.financials.revenue":          "Revenue",
		"field.financials.hasEmployees":     "Do you have employees?",
		"field.financials.payroll":          "Payroll",
		"field.confirmations.accuracy":      "I confirm the information is accurate",
		"field.confirmations.documents":     "I attached all relevant documents",
		"field.confirmations.authorization": "I authorize the preparation of my return",
		"field.confirmations.terms":         "I accept the terms of service",
		"pdf.title":                         "File summary",
		"pdf.case":                          "File",
		"pdf.generated":                     "Generated on",
	},
	"es": {
		"required":                          "Obligatorio",
		"invalid_year":                      "Año inválido (2000 a 2100)",
		"invalid_sin":                       "El NAS debe contener 9 dígitos",
		"invalid_date":                      "Fecha inválida (DD/MM/AAAA)",
		"invalid_postal_code":               "Código postal inválido",
		"invalid_email":                     "Correo inválido",
		"invalid_province":                  "Provincia inválida",
		"invalid_amount":                    "Monto inválido",
		"invalid_count":                     "Número inválido",
		"invalid_neq":                       "El NEQ debe contener 10 dígitos",
		"invalid_business_number":           "El número de empresa debe contener 9 dígitos",
		"phone_or_mobile":                   "Se requiere un teléfono o un celular",
		"dependants_required":               "Agregue al menos un dependiente",
		"must_confirm":                      "Esta confirmación es obligatoria",
		"error.save_failed":                 "No se pudo guardar el expediente. Inténtelo de nuevo.",
		"error.network":                     "Error de red. Verifique su conexión.",
		"error.fid_missing":                 "Ningún expediente seleccionado. Comience desde el primer paso.",
		"error.not_found":                   "Expediente no encontrado",
		"error.forbidden":                   "Acceso denegado",
		"error.unsupported_file":            "Tipo de archivo no aceptado",
		"error.file_too_large":              "Archivo demasiado grande",
		"error.no_attachments":              "Agregue al menos un documento antes de continuar",
		"error.checkout_failed":             "No se pudo iniciar el pago",
		"error.invalid_status":              "Este expediente ya no se puede modificar",
		"error.invalid_login":               "Correo o contraseña inválidos",
		"error.email_taken":                 "El correo ya existe",
		"error.credentials_empty":           "Correo y contraseña obligatorios",
		"error.validation":                  "Corrija los campos indicados",
		"error.unauthorized":                "Inicie sesión",
		"error.invalid_request":             "Solicitud inválida",
		"ui.continue":                       "Continuar",
		"ui.save":                           "Guardar",
		"ui.pay":                            "Pagar",
		"ui.finish":                         "Terminar",
		"ui.upload":                         "Subir",
		"ui.login":                          "Iniciar sesión",
		"ui.signup":                         "Crear cuenta",
		"ui.logout":                         "Cerrar sesión",
		"ui.email":                          "Correo",
		"ui.password":                       "Contraseña",
		"ui.name":                           "Nombre",
		"ui.attachments":                    "Documentos adjuntos",
		"ui.summary":                        "Resumen",
		"ui.status":                         "Estado",
		"ui.saved":                          "Guardado",
		"ui.kind":                           "Tipo de expediente",
		"ui.year":                           "Año",
		"ui.holder":                         "Titular",
		"ui.checklist":                      "Lista de verificación",
		"ui.complete":                       "Completo",
		"ui.incomplete":                     "Por completar",
		"ui.back":                           "Volver",
		"ui.my_cases":                       "Mis expedientes",
		"ui.new_case":                       "Nuevo expediente",
		"ui.no_cases":                       "Aún no hay expedientes",
		"ui.yes":                            "Sí",
		"ui.no":                             "No",
		"ui.add_dependant":                  "Agregar una persona a cargo",
		"ui.download":                       "Descargar",
		"ui.last_saved":                     "Último guardado",
		"ui.users":                          "Usuarios",
		"ui.profile":                        "Perfil",
		"ui.assign":                         "Asignar",
		"ui.staff_mode":                     "Modo presencial",
		"ui.thanks":                         "¡Gracias! Su expediente ha sido recibido.",
		"ui.errors_title":                   "Corrija lo siguiente",
		"ui.summary_pdf":                    "Resumen PDF",
		"error.internal":                    "Ocurrió un error",
		"status.draft":                      "Borrador",
		"status.ready_for_payment":          "Pendiente de pago",
		"status.submitted":                  "Recibido",
		"kind.individual":                   "Particular (T1)",
		"kind.self_employed":                "Trabajador autónomo (TA)",
		"kind.corporate":                    "Sociedad (T2)",
		"step.info":                         "Información",
		"step.income":                       "Ingresos y gastos",
		"step.financials":                   "Estados financieros",
		"step.documents":                    "Documentos",
		"step.send":                         "Envío",
		"section.identity":                  "Identidad",
		"section.contact":                   "Contacto",
		"section.fiscal":                    "Año fiscal",
		"section.spouse":                    "Cónyuge",
		"section.household":                 "Dependientes",
		"section.insurance":                 "Seguro de medicamentos (Quebec)",
		"section.business":                  "Empresa",
		"section.company":                   "Sociedad",
		"section.financials":                "Datos financieros",
		"section.confirmations":             "Confirmaciones",
		"field.identity.firstName":          "Nombre",
		"field.identity.lastName":           "Apellido",
		"field.identity.sin":                "NAS",
		"field.identity.dateOfBirth":        "Fecha de nacimiento",
		"field.contact.email":               "Correo",
		"field.contact.phone":               "Teléfono",
		"field.contact.mobile":              "Celular",
		"field.contact.street":              "Dirección",
		"field.contact.city":                "Ciudad",
		"field.contact.province":            "Provincia",
		"field.contact.postalCode":          "Código postal",
		"field.fiscal.year":                 "Año",
		"field.spouse.hasSpouse":            "¿Tiene cónyuge?",
		"field.spouse.includeSpouseReturn":  "¿Incluir la declaración del cónyuge?",
		"field.spouse.firstName":            "Nombre del cónyuge",
		"field.spouse.lastName":             "Apellido del cónyuge",
		"field.spouse.sin":                  "NAS del cónyuge",
		"field.spouse.dateOfBirth":          "Fecha de nacimiento del cónyuge",
		"field.household.dependantCount":    "Número de dependientes",
		"field.household.dependants":        "Dependientes",
		"field.dependant.firstName":         "Nombre",
		"field.dependant.lastName":          "Apellido",
		"field.dependant.dateOfBirth":       "Fecha de nacimiento",
		"field.dependant.sin":               "NAS",
		"field.dependant.relationship":      "Parentesco",
		"field.insurance.start":             "Inicio de la cobertura",
		"field.insurance.end":               "Fin de la cobertura",
		"field.business.name":               "Nombre de la empresa",
		"field.business.activity":           "Actividad",
		"field.business.grossRevenue":       "Ingresos brutos",
		"field.business.expenses":           "Gastos",
		"field.business.homeOffice":         "¿Oficina en casa?",
		"field.business.homeOfficeArea":     "Superficie de la oficina (pie²)",
		"field.company.name":                "Razón social",
		"field.company.neq":                 "NEQ",
		"field.company.businessNumber":      "Número de empresa",
		"field.company.fiscalYearEnd":       "Cierre del ejercicio",
		"field.financials.revenue":          "Facturación",
		"field.financials.hasEmployees":     "¿Tiene empleados?",
		"field.financials.payroll":          "Nómina",
		"field.confirmations.accuracy":      "Confirmo que la información es exacta",
		"field.confirmations.documents":     "Adjunté todos los documentos pertinentes",
		"field.confirmations.authorization": "Autorizo la preparación de mi declaración",
		"field.confirmations.terms":         "Acepto las condiciones del servicio",
		"pdf.title":                         "Resumen del expediente",
		"pdf.case":                          "Expediente",
		"pdf.generated":                     "Generado el",
	},
}
