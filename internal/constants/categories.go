package constants

const (
	CategoryIDCard  = "idcard"
	CategoryLanyard = "lanyard"

	StyleDynamic = "dynamic"
	StyleStatic  = "static"

	RulePhoto    = "photo"
	RuleText     = "text"
	RuleLogo     = "logo"
	RuleDropdown = "dropdown"
)

// Размеры по категориям: превью в "визуальных" px, экспорт в px растра.
var (
	PreviewSize = map[string][2]float64{
		CategoryIDCard:  {350, 550},
		CategoryLanyard: {900, 22},
	}

	ExportSize = map[string][2]int{
		CategoryIDCard:  {661, 1039},
		CategoryLanyard: {6000, 150},
	}

	DefaultFontSize = map[string]float64{
		CategoryIDCard:  24,
		CategoryLanyard: 16,
	}

	DefaultLogoGap = map[string]float64{
		CategoryIDCard:  32,
		CategoryLanyard: 5,
	}
)

// Ограничения масштабов
const (
	PhotoScaleMin = 1.0
	PhotoScaleMax = 3.0

	LogoScaleMin = 0.3
	LogoScaleMax = 2.5

	FontSizeMin = 1.0
	FontSizeMax = 400.0

	// IDCardLogoHeightRatio доля высоты области под логотип
	IDCardLogoHeightRatio = 0.95
	// LanyardLogoWidthRatio доля ширины всего холста
	LanyardLogoWidthRatio = 0.02

	ZoomMin  = 0.5
	ZoomMax  = 3.0
	ZoomStep = 0.25
)

const ImageProxyPath = "/resources/image-proxy"
