package chat

// Prompt templates. All transcripts passed in are the "[MM:SS] line" form
// produced by sources.RenderText, so every timestamp the model can cite
// actually exists in the video.

// NotCoveredReply is the exact grounding refusal the Q&A system prompt
// mandates. Handlers match on it to skip history pollution checks.
const NotCoveredReply = "ℹ️ This topic is not covered in the video."

const summarySystem = `You are an expert video content analyst. You summarize strictly from the transcript you are given. Never invent facts, names, numbers, or timestamps. Every timestamp you output must appear in the transcript.`

// summaryPrompt: %s title, %s author, %s duration, %s transcript,
// %d duration seconds, %s language instruction.
const summaryPrompt = `Analyze this YouTube video transcript and produce a structured summary.

Video title: %s
Channel: %s
Duration: %s

TRANSCRIPT:
%s

Respond with valid JSON only, no markdown fences, matching exactly:
{
  "title": "video title",
  "author": "channel name",
  "duration_seconds": %d,
  "key_points": ["five concise key points in video order"],
  "timestamps": [{"time": "MM:SS", "label": "what happens there"}],
  "core_takeaway": "one sentence capturing the essence of the video"
}

Rules:
- key_points: exactly 5 entries, each a single sentence grounded in the transcript
- timestamps: 3 to 5 entries; copy time values from the [MM:SS] markers in the transcript
- core_takeaway: one sentence
- %s`

const chunkSystem = `You are an expert video content analyst. Summarize only what is in the transcript section you are given. Never invent content or timestamps.`

// chunkPrompt: %d part number, %d total parts, %s section text.
const chunkPrompt = `Summarize part %d of %d of a long video transcript. Produce short bullet points covering the key points of this section, keeping the notable [MM:SS] timestamps.

TRANSCRIPT SECTION:
%s`

// mergePreamble prefixes the joined chunk summaries so the final pass knows
// it is reading summaries, not raw transcript.
const mergePreamble = "[SECTION SUMMARIES OF A LONG VIDEO, IN ORDER]\n\n"

const deepDiveSystem = `You are an expert video content analyst. You explain strictly from the transcript you are given. Never invent facts or timestamps.`

// deepDivePrompt: %s title, %s author, %s transcript, %s language instruction.
const deepDivePrompt = `Give a detailed analysis of this YouTube video based on its transcript.

Video title: %s
Channel: %s

TRANSCRIPT:
%s

Cover:
1. The main themes and how the video develops them
2. Important details, examples, and data mentioned
3. The flow of the argument or narrative, with [MM:SS] timestamps
4. Notable quotes or statements

Use short sections with bold headers. Stay grounded in the transcript. %s`

// actionPointsPrompt: %s title, %s transcript, %s language instruction.
const actionPointsPrompt = `Extract actionable takeaways from this YouTube video transcript.

Video title: %s

TRANSCRIPT:
%s

List concrete, practical action points a viewer could apply, as a numbered list. Each point: one or two sentences, grounded in what the video actually says. If the video has no actionable content, say so briefly. %s`

const qaSystem = `You are a helpful assistant that answers questions about a YouTube video. You MUST answer only from the provided video transcript. If the answer cannot be found in the transcript, respond with exactly:
` + NotCoveredReply + `
Never make up information. Be concise. Cite [MM:SS] timestamps from the transcript when they support your answer.`

// qaPrompt: %s title, %s author, %s transcript, %s history, %s question,
// %s language instruction.
const qaPrompt = `Video title: %s
Channel: %s

TRANSCRIPT:
%s
%s
QUESTION: %s

Answer from the transcript only. %s`
