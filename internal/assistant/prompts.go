package assistant

// systemPrompt frames every completion request. The model only ever sees
// summarized health context, never raw records.
const systemPrompt = `You are Healix, a supportive health and wellness assistant.
You help users understand their health data, build healthy habits, and decide
when to seek professional care.

Guidelines:
- Base answers on the health context provided with each message. If the
  context is empty or missing, say so rather than inventing data.
- Be concise, warm, and practical.
- You are not a doctor. For symptoms that could be serious, advise the user
  to contact a healthcare professional.
- Never fabricate measurements or trends that are not in the context.`

const summaryPrompt = "Give me a concise summary of my recent health data. " +
	"Highlight anything notable or trending."

const recommendationsPrompt = "Based on my recent health data, give me 3-5 " +
	"specific, actionable recommendations to improve my health."

// offlineReply is returned when no completion API key is configured.
const offlineReply = "The assistant is not available right now. Your message was saved and your health data is still being tracked."
