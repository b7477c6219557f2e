package staticfile

import (
	"fmt"
	"strings"

	"github.com/localpub/localpub/internal/domain"
	"github.com/localpub/localpub/internal/labels"
	"github.com/localpub/localpub/internal/logger"
)

// Mapper converts static record definitions to publication intents by
// rendering each one as a label map and running it through the same parser
// containers go through. Static records get no special validation rules.
type Mapper struct {
	parser *labels.Parser
}

func NewMapper(log logger.Logger) *Mapper {
	return &Mapper{parser: labels.NewParser(log)}
}

// MapRecords converts a RecordsConfig to publication intents. A malformed
// definition fails the whole mapping: the file is operator-authored, unlike
// container labels there is no reason to tolerate bad entries.
func (m *Mapper) MapRecords(config *RecordsConfig) ([]*domain.PublicationIntent, error) {
	intents := make([]*domain.PublicationIntent, 0, len(config.Records))

	for i, props := range config.Records {
		labelMap := map[string]string{
			labels.KeyPublish: props.Host,
		}
		if props.Port > 0 {
			labelMap[labels.KeyPublish] = fmt.Sprintf("%s:%d", props.Host, props.Port)
		}
		if props.Type != "" {
			labelMap[labels.KeyServiceType] = props.Type
		}
		if len(props.Txt) > 0 {
			labelMap[labels.KeyTxt] = strings.Join(props.Txt, ",")
		}

		intent, err := m.parser.Parse(labelMap)
		if err != nil {
			return nil, fmt.Errorf("static record %d (%s): %w", i, props.Host, err)
		}
		intents = append(intents, intent)
	}

	return intents, nil
}
