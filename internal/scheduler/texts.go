package scheduler

import "github.com/triestelab/whatsapp-agent/internal/models"

const welcomeText = `👋 Ciao %s!

Benvenuto in Trieste Facility! 🎾

Siamo qui per aiutarti con:
✅ Prenotazioni padel e tennis
✅ Consulenza sportiva personalizzata
✅ Servizi di protezione finanziaria
✅ Spazi di coworking

📞 Contattaci per qualsiasi domanda!`

const weeklyReminderText = `📢 Ciao %s!

Ricordati di noi questa settimana:

🏓 Padel: Prenotazioni aperte!
🎾 Tennis: Lezioni disponibili
💼 Coworking: 10%% sconto per abbonati
💰 Protezione Finanziaria: Consulenza gratuita

📞 Rispondi per prenotare!`

// Win-back offers by customer sector. Sectors without an entry are
// skipped by the win-back job.
var winbackOffers = map[string]string{
	models.SectorSport: `⚽ Manca il padel?

Questo mese offerta speciale:
- 5 partite = 100€ (sconto 20%)
- Lezione tecnica gratuita
- Torneo a premi

Prenoti? 🏓`,

	models.SectorCoworking: `💼 Esigenza spazi di lavoro?

OFFERTA ESCLUSIVA:
- Scrivania fissa: €350/mese (era €400)
- WiFi 1Gbps + Catering
- 2 meeting room gratis/mese

Interessato? 📞`,

	models.SectorFinance: `💰 Protezione Finanziaria

Nuovo piano protezione:
✅ Copertura ampliata
✅ Premi ridotti 15%
✅ Consulenza personalizzata

Consulenza gratuita? 📋`,
}
