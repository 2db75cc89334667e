package vision

// PlantAnalysisInstruction asks for plain text only; the sanitizer still runs
// afterwards because models do not always comply.
const PlantAnalysisInstruction = "Analyze this plant image and provide detailed analysis including species, health condition, diseases, and care recommendations. " +
	"Return the response ONLY as plain text. DO NOT use bold text, headings, markdown symbols, asterisks, bullets, or special formatting."
