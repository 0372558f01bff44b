// Package jsonstream extracts complete JSON objects from a text stream that
// arrives in arbitrarily sized chunks.
//
// Objects in the stream carry no length prefix and no separator; they are
// simply concatenated, and chunk boundaries bear no relation to object
// boundaries. The package splits the work into small, separately testable
// pieces:
//
//   - Decoder turns raw bytes into text, holding back an incomplete
//     multi-byte sequence until the next chunk completes it.
//   - Buffer holds decoded text that has not been consumed yet.
//   - Tokenizer is the brace/string state machine that finds where the
//     first top-level object ends.
//   - Scanner combines a Buffer and a Tokenizer and yields parsed Units.
//
// # Usage
//
//	dec := jsonstream.NewDecoder()
//	sc := jsonstream.NewScanner()
//	for chunk := range chunks {
//	    text, err := dec.Decode(chunk)
//	    if err != nil {
//	        return err
//	    }
//	    sc.Append(text)
//	    for {
//	        unit, ok := sc.Next()
//	        if !ok {
//	            break
//	        }
//	        handle(unit)
//	    }
//	}
package jsonstream
